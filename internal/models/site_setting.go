// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"
)

// Site copy keys edited from the admin settings page.
const (
	SettingSiteTagline     = "site_tagline"
	SettingHeroTitle       = "hero_title"
	SettingHeroSubtitle    = "hero_subtitle"
	SettingHeroImageURL    = "hero_image_url"
	SettingBiography       = "biography"   // markdown
	SettingServices        = "services"    // markdown
	SettingAboutStats      = "about_stats" // yaml, []Stat
	SettingPortfolioTitle  = "portfolio_title"
	SettingPortfolioIntro  = "portfolio_subtitle"
	SettingListings        = "portfolio_listings" // yaml, []Listing
	SettingProfile         = "profile"            // yaml, Profile
	SettingContactEmail    = "contact_email"
	SettingContactPhone    = "contact_phone"
	SettingWhatsApp        = "whatsapp_number"
	SettingInstagramURL    = "instagram_url"
	SettingLinkedInURL     = "linkedin_url"
	SettingThankYouSubject = "thank_you_subject"
)

// SettingKeys lists every key the settings form accepts, in display order.
var SettingKeys = []string{
	SettingSiteTagline,
	SettingHeroTitle,
	SettingHeroSubtitle,
	SettingHeroImageURL,
	SettingBiography,
	SettingServices,
	SettingAboutStats,
	SettingPortfolioTitle,
	SettingPortfolioIntro,
	SettingListings,
	SettingProfile,
	SettingContactEmail,
	SettingContactPhone,
	SettingWhatsApp,
	SettingInstagramURL,
	SettingLinkedInURL,
	SettingThankYouSubject,
}

// SiteSetting represents a single configuration key-value pair.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// HasPortfolio reports whether there is anything to show on /portfolio.
func (s SiteSettings) HasPortfolio() bool {
	return strings.TrimSpace(s[SettingProfile]) != "" || strings.TrimSpace(s[SettingListings]) != ""
}
