// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"estatepress/internal/document"
	"estatepress/internal/models"
)

// PostStore persists blog posts. The block document lives in a JSONB column.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, excerpt, meta_description, featured_image_url,
	content, published, author_id, created_at, updated_at`

func scanPost(scanner interface{ Scan(...any) error }) (*models.BlogPost, error) {
	var p models.BlogPost
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.MetaDescription, &p.FeaturedImageURL,
		&p.Content, &p.Published, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PostFilter narrows List. Zero values mean "no restriction".
type PostFilter struct {
	Published   *bool
	ExcludeSlug string
	Limit       int
	Offset      int
}

// PostFields carries a partial update. Nil fields are left unchanged.
type PostFields struct {
	Title            *string
	Slug             *string
	Excerpt          **string
	MetaDescription  **string
	FeaturedImageURL **string
	Content          *document.Document
	Published        *bool
}

// Get returns the post with the given slug regardless of its published
// state, or nil if none exists. Visibility is the caller's decision.
func (s *PostStore) Get(slug string) (*models.BlogPost, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// GetByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) GetByID(id uuid.UUID) (*models.BlogPost, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// List returns posts matching f, newest first.
func (s *PostStore) List(f PostFilter) ([]models.BlogPost, error) {
	var (
		where []string
		args  []any
	)
	if f.Published != nil {
		args = append(args, *f.Published)
		where = append(where, fmt.Sprintf("published = $%d", len(args)))
	}
	if f.ExcludeSlug != "" {
		args = append(args, f.ExcludeSlug)
		where = append(where, fmt.Sprintf("slug <> $%d", len(args)))
	}

	query := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Insert creates a post and returns the stored row.
func (s *PostStore) Insert(p *models.BlogPost) (*models.BlogPost, error) {
	row := s.db.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, meta_description, featured_image_url,
		                   content, published, author_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Excerpt, p.MetaDescription, p.FeaturedImageURL,
		p.Content, p.Published, p.AuthorID,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Update applies the non-nil fields and bumps updated_at. It returns the
// updated row, or nil if the post does not exist.
func (s *PostStore) Update(id uuid.UUID, f PostFields) (*models.BlogPost, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.Title != nil {
		set("title", *f.Title)
	}
	if f.Slug != nil {
		set("slug", *f.Slug)
	}
	if f.Excerpt != nil {
		set("excerpt", *f.Excerpt)
	}
	if f.MetaDescription != nil {
		set("meta_description", *f.MetaDescription)
	}
	if f.FeaturedImageURL != nil {
		set("featured_image_url", *f.FeaturedImageURL)
	}
	if f.Content != nil {
		set("content", *f.Content)
	}
	if f.Published != nil {
		set("published", *f.Published)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), postColumns)

	p, err := scanPost(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return p, nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Count returns the number of posts, optionally filtered by published state.
func (s *PostStore) Count(published *bool) (int, error) {
	var (
		count int
		err   error
	)
	if published == nil {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE published = $1`, *published).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// SlugExists reports whether another post already uses slug.
func (s *PostStore) SlugExists(slug string, except uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`, slug, except,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}
