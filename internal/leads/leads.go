// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package leads handles contact form submissions. A submission is accepted
// once it is stored; the thank-you email that follows is best effort and
// its failure never reaches the visitor.
package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"estatepress/internal/mailer"
	"estatepress/internal/models"
)

// PropertyInterests are the options offered by the contact form.
var PropertyInterests = []string{
	"Residential Apartment",
	"Luxury Villa",
	"Commercial Property",
	"Investment Opportunity",
	"Land/Plot",
	"Other",
}

// Field length limits in characters.
const (
	maxName     = 120
	maxEmail    = 254
	maxPhone    = 40
	maxInterest = 80
	maxMessage  = 4000
)

// ErrInvalidLead is matched by every *ValidationError.
var ErrInvalidLead = errors.New("invalid lead")

// ValidationError maps form field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range []string{"name", "email", "phone", "property_interest", "message"} {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid lead: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidLead
}

// Input is the raw contact form.
type Input struct {
	Name             string
	Email            string
	Phone            string
	PropertyInterest string
	Message          string
}

// Normalize trims every field and lower-cases the email domain part.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.PropertyInterest = strings.TrimSpace(in.PropertyInterest)
	in.Message = strings.TrimSpace(in.Message)
	if at := strings.LastIndexByte(in.Email, '@'); at > 0 {
		in.Email = in.Email[:at] + strings.ToLower(in.Email[at:])
	}
	return in
}

// Validate checks a normalized input. It returns nil or a *ValidationError.
func (in Input) Validate() error {
	fields := map[string]string{}

	switch {
	case in.Name == "":
		fields["name"] = "Name is required."
	case utf8.RuneCountInString(in.Name) > maxName:
		fields["name"] = fmt.Sprintf("Name must be at most %d characters.", maxName)
	}

	switch {
	case in.Email == "":
		fields["email"] = "Email is required."
	case len(in.Email) > maxEmail:
		fields["email"] = "Email is too long."
	default:
		addr, err := mail.ParseAddress(in.Email)
		if err != nil || addr.Address != in.Email {
			fields["email"] = "Enter a valid email address."
		}
	}

	if utf8.RuneCountInString(in.Phone) > maxPhone {
		fields["phone"] = "Phone number is too long."
	}
	if utf8.RuneCountInString(in.PropertyInterest) > maxInterest {
		fields["property_interest"] = "Property interest is too long."
	}
	if utf8.RuneCountInString(in.Message) > maxMessage {
		fields["message"] = fmt.Sprintf("Message must be at most %d characters.", maxMessage)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Store persists leads.
type Store interface {
	Create(l *models.Lead) (*models.Lead, error)
	MarkNotified(id uuid.UUID) error
}

// Settings supplies site copy used in the email.
type Settings interface {
	All() (models.SiteSettings, error)
}

// Outcome describes an accepted submission.
type Outcome struct {
	Lead     *models.Lead
	Notified bool
}

// Service accepts contact form submissions.
type Service struct {
	store    Store
	mailer   mailer.Mailer
	settings Settings
	siteName string
	siteURL  string
}

// NewService creates a Service. mailer and settings may be nil.
func NewService(store Store, m mailer.Mailer, settings Settings, siteName, siteURL string) *Service {
	return &Service{store: store, mailer: m, settings: settings, siteName: siteName, siteURL: siteURL}
}

// Submit validates and stores the lead, then tries once to send the
// thank-you email. Only validation and storage failures are returned.
func (s *Service) Submit(ctx context.Context, in Input) (*Outcome, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lead, err := s.store.Create(&models.Lead{
		Name:             in.Name,
		Email:            in.Email,
		Phone:            optional(in.Phone),
		PropertyInterest: optional(in.PropertyInterest),
		Message:          optional(in.Message),
	})
	if err != nil {
		return nil, fmt.Errorf("store lead: %w", err)
	}

	out := &Outcome{Lead: lead}
	if err := s.notify(ctx, lead); err != nil {
		slog.Warn("thank-you email failed", "lead_id", lead.ID, "error", err)
		return out, nil
	}
	out.Notified = true

	if err := s.store.MarkNotified(lead.ID); err != nil {
		slog.Warn("failed to mark lead notified", "lead_id", lead.ID, "error", err)
	}
	return out, nil
}

func (s *Service) notify(ctx context.Context, lead *models.Lead) error {
	if s.mailer == nil {
		return errors.New("no mailer configured")
	}

	var siteCopy models.SiteSettings
	if s.settings != nil {
		all, err := s.settings.All()
		if err != nil {
			slog.Warn("site settings unavailable for email", "error", err)
		}
		siteCopy = all
	}

	msg, err := mailer.ThankYou(mailer.ThankYouData{
		SiteName:         s.siteName,
		SiteURL:          s.siteURL,
		Subject:          siteCopy.Get(models.SettingThankYouSubject, ""),
		Name:             lead.Name,
		Email:            lead.Email,
		Phone:            deref(lead.Phone),
		PropertyInterest: deref(lead.PropertyInterest),
		ContactEmail:     siteCopy.Get(models.SettingContactEmail, ""),
	})
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
