package engine

import (
	"log/slog"

	"estatepress/internal/models"
)

// PortfolioData is the portfolio page and the matching home page section.
// Profile is nil when no profile has been written yet.
type PortfolioData struct {
	Title    string
	Subtitle string
	Listings []models.Listing
	Profile  *models.Profile
}

// Empty reports whether there is nothing to show.
func (d PortfolioData) Empty() bool {
	return d.Profile == nil && len(d.Listings) == 0
}

// Portfolio builds the portfolio view from the site settings. Values are
// validated when saved; anything that still fails to parse is logged and
// left out rather than breaking the page.
func (e *Engine) Portfolio(settings models.SiteSettings) PortfolioData {
	d := PortfolioData{
		Title:    settings.Get(models.SettingPortfolioTitle, "Portfolio"),
		Subtitle: settings.Get(models.SettingPortfolioIntro, ""),
	}

	profile, err := models.ParseProfile(settings[models.SettingProfile])
	if err != nil {
		slog.Warn("profile setting unreadable", "error", err)
	}
	d.Profile = profile

	listings, err := models.ParseListings(settings[models.SettingListings])
	if err != nil {
		slog.Warn("portfolio listings unreadable", "error", err)
	}
	d.Listings = listings
	return d
}

// AboutStats returns the figures shown next to the biography.
func (e *Engine) AboutStats(settings models.SiteSettings) []models.Stat {
	stats, err := models.ParseStats(settings[models.SettingAboutStats])
	if err != nil {
		slog.Warn("about figures unreadable", "error", err)
		return nil
	}
	return stats
}
