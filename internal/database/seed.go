package database

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"estatepress/internal/document"
)

//go:embed seed/site.yaml
var seedYAML []byte

// SeedData is the development fixture set shipped in seed/site.yaml.
type SeedData struct {
	Admin struct {
		Email       string `yaml:"email"`
		Password    string `yaml:"password"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"admin"`
	Settings map[string]string `yaml:"settings"`
	Posts    []SeedPost        `yaml:"posts"`
}

// SeedPost is a blog post fixture. Blocks use the editor's JSON shape.
type SeedPost struct {
	Title     string           `yaml:"title"`
	Slug      string           `yaml:"slug"`
	Excerpt   string           `yaml:"excerpt"`
	Published bool             `yaml:"published"`
	Blocks    []map[string]any `yaml:"blocks"`
}

// Document converts the YAML blocks into a post document.
func (p SeedPost) Document() (document.Document, error) {
	raw, err := json.Marshal(p.Blocks)
	if err != nil {
		return document.Document{}, fmt.Errorf("seed post %s: %w", p.Slug, err)
	}
	return document.Parse(raw)
}

// LoadSeed parses the embedded seed file.
func LoadSeed() (*SeedData, error) {
	var data SeedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}
	return &data, nil
}

// Seed populates an empty development database: the default admin (who must
// enroll 2FA on first login), missing site copy keys and, when the posts
// table is empty, the sample posts. It is safe to call repeatedly.
func Seed(db *sql.DB) error {
	data, err := LoadSeed()
	if err != nil {
		return err
	}

	adminID, err := seedAdmin(db, data)
	if err != nil {
		return err
	}

	for k, v := range data.Settings {
		if _, err := db.Exec(`
			INSERT INTO site_settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, k, v); err != nil {
			return fmt.Errorf("seed setting %s: %w", k, err)
		}
	}

	var posts int
	if err := db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&posts); err != nil {
		return fmt.Errorf("seed check posts: %w", err)
	}
	if posts > 0 {
		slog.Info("database already seeded, skipping posts")
		return nil
	}

	for _, p := range data.Posts {
		doc, err := p.Document()
		if err != nil {
			return err
		}
		var excerpt *string
		if p.Excerpt != "" {
			excerpt = &p.Excerpt
		}
		if _, err := db.Exec(`
			INSERT INTO posts (title, slug, excerpt, content, published, author_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO NOTHING
		`, p.Title, p.Slug, excerpt, doc, p.Published, adminID); err != nil {
			return fmt.Errorf("seed post %s: %w", p.Slug, err)
		}
	}

	slog.Info("database seeded", "posts", len(data.Posts), "settings", len(data.Settings))
	return nil
}

// seedAdmin creates the default admin when no user exists and returns the
// id of the first admin account.
func seedAdmin(db *sql.DB, data *SeedData) (*string, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return nil, fmt.Errorf("seed check users: %w", err)
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte(data.Admin.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("seed bcrypt: %w", err)
		}
		_, err = db.Exec(`
			INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
			VALUES ($1, $2, $3, 'admin', FALSE)
		`, data.Admin.Email, string(hash), data.Admin.DisplayName)
		if err != nil {
			return nil, fmt.Errorf("seed insert admin: %w", err)
		}
		slog.Info("database seeded with default admin user",
			"email", data.Admin.Email,
			"password", data.Admin.Password,
		)
	}

	var id string
	err := db.QueryRow(`SELECT id::text FROM users WHERE role = 'admin' ORDER BY created_at LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seed find admin: %w", err)
	}
	return &id, nil
}
