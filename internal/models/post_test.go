package models

import (
	"testing"
	"time"
)

func TestBlogPostStatus(t *testing.T) {
	tests := []struct {
		published bool
		want      string
	}{
		{true, "published"},
		{false, "draft"},
	}
	for _, tt := range tests {
		p := &BlogPost{Published: tt.published}
		if got := p.Status(); got != tt.want {
			t.Errorf("Status() with Published=%v = %q, want %q", tt.published, got, tt.want)
		}
	}
}

func TestBlogPostLastModified(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	p := &BlogPost{CreatedAt: created}
	if got := p.LastModified(); !got.Equal(created) {
		t.Errorf("LastModified() without update = %v, want %v", got, created)
	}

	p.UpdatedAt = updated
	if got := p.LastModified(); !got.Equal(updated) {
		t.Errorf("LastModified() = %v, want %v", got, updated)
	}
}

func TestBlogPostDescription(t *testing.T) {
	meta := "Meta text"
	excerpt := "Excerpt text"
	empty := ""

	tests := []struct {
		name    string
		meta    *string
		excerpt *string
		want    string
	}{
		{"meta wins", &meta, &excerpt, "Meta text"},
		{"empty meta falls back", &empty, &excerpt, "Excerpt text"},
		{"excerpt only", nil, &excerpt, "Excerpt text"},
		{"nothing", nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &BlogPost{MetaDescription: tt.meta, Excerpt: tt.excerpt}
			if got := p.Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLeadNotified(t *testing.T) {
	l := &Lead{}
	if l.Notified() {
		t.Error("new lead must not be marked notified")
	}
	now := time.Now()
	l.NotifiedAt = &now
	if !l.Notified() {
		t.Error("lead with NotifiedAt must be notified")
	}
}

func TestSiteSettingsGet(t *testing.T) {
	s := SiteSettings{SettingHeroTitle: "Find your home", SettingHeroSubtitle: ""}

	if got := s.Get(SettingHeroTitle, "x"); got != "Find your home" {
		t.Errorf("Get(hero_title) = %q", got)
	}
	if got := s.Get(SettingHeroSubtitle, "fallback"); got != "fallback" {
		t.Errorf("empty value should use fallback, got %q", got)
	}
	if got := s.Get("missing", "fb"); got != "fb" {
		t.Errorf("missing key should use fallback, got %q", got)
	}
}
