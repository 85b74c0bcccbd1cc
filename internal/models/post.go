// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"

	"estatepress/internal/document"
)

// BlogPost is an article on the public blog. Its body is a block document
// stored as JSONB; drafts are hidden from the public site unless a valid
// preview token is presented.
type BlogPost struct {
	ID               uuid.UUID         `json:"id"`
	Title            string            `json:"title"`
	Slug             string            `json:"slug"`
	Excerpt          *string           `json:"excerpt,omitempty"`
	MetaDescription  *string           `json:"meta_description,omitempty"`
	FeaturedImageURL *string           `json:"featured_image_url,omitempty"`
	Content          document.Document `json:"content"`
	Published        bool              `json:"published"`
	AuthorID         *uuid.UUID        `json:"author_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Status returns "published" or "draft" for display.
func (p *BlogPost) Status() string {
	if p.Published {
		return "published"
	}
	return "draft"
}

// LastModified is the updated timestamp, or the creation time when the post
// has never been edited.
func (p *BlogPost) LastModified() time.Time {
	if p.UpdatedAt.IsZero() {
		return p.CreatedAt
	}
	return p.UpdatedAt
}

// Description returns the meta description when set, otherwise the excerpt.
func (p *BlogPost) Description() string {
	if p.MetaDescription != nil && *p.MetaDescription != "" {
		return *p.MetaDescription
	}
	if p.Excerpt != nil {
		return *p.Excerpt
	}
	return ""
}
