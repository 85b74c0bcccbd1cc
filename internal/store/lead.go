package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"estatepress/internal/models"
)

// LeadStore persists contact form submissions.
type LeadStore struct {
	db *sql.DB
}

// NewLeadStore creates a new LeadStore.
func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

const leadColumns = `id, name, email, phone, property_interest, message, notified_at, created_at`

func scanLead(scanner interface{ Scan(...any) error }) (*models.Lead, error) {
	var l models.Lead
	err := scanner.Scan(
		&l.ID, &l.Name, &l.Email, &l.Phone, &l.PropertyInterest,
		&l.Message, &l.NotifiedAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a lead and returns the stored row.
func (s *LeadStore) Create(l *models.Lead) (*models.Lead, error) {
	row := s.db.QueryRow(`
		INSERT INTO leads (name, email, phone, property_interest, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+leadColumns,
		l.Name, l.Email, l.Phone, l.PropertyInterest, l.Message,
	)
	created, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	return created, nil
}

// MarkNotified records that the thank-you email was sent.
func (s *LeadStore) MarkNotified(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE leads SET notified_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark lead notified: %w", err)
	}
	return nil
}

// List returns leads newest first.
func (s *LeadStore) List(limit, offset int) ([]models.Lead, error) {
	rows, err := s.db.Query(`
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

// Count returns the total number of leads.
func (s *LeadStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return count, nil
}
