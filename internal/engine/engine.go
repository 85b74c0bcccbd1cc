// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders the public site. Pages are html/templates embedded
// in the binary and executed inside a shared layout; the result is returned
// as bytes so handlers can put it in the page cache.
package engine

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"estatepress/internal/leads"
	"estatepress/internal/models"
	"estatepress/internal/pipeline"
)

//go:embed templates/public/*.html
var publicFS embed.FS

// Site is the chrome shared by every page: branding, contact details and
// social links from the site settings.
type Site struct {
	Name         string
	BaseURL      string
	Tagline      string
	ContactEmail string
	ContactPhone string
	WhatsApp     string
	InstagramURL string
	LinkedInURL  string
	HasPortfolio bool
	Year         int
}

// Page is the data passed to the layout. Data holds the page-specific view.
type Page struct {
	Site        Site
	Title       string
	Description string
	Canonical   string
	Image       string
	Section     string // active nav entry
	NoIndex     bool
	JSONLD      template.JS
	Data        any
}

// PostCard is a post in a listing.
type PostCard struct {
	Title    string
	URL      string
	Excerpt  string
	ImageURL string
	Date     time.Time
	ReadTime int
}

// HomeData is the landing page view.
type HomeData struct {
	HeroTitle    string
	HeroSubtitle string
	HeroImageURL string
	Biography    template.HTML
	AboutStats   []models.Stat
	Services     template.HTML
	Portfolio    PortfolioData
	Posts        []PostCard
}

// BlogData is a page of the blog index.
type BlogData struct {
	Posts   []PostCard
	Page    int
	PrevURL string
	NextURL string
}

// PostData is a single article.
type PostData struct {
	Title    string
	Date     time.Time
	Updated  time.Time
	ReadTime int
	ImageURL string
	Nodes    []pipeline.Node
	TOC      []pipeline.Heading
	Related  []PostCard
	Share    []ShareLink
	Preview  bool
}

// ContactData is the contact form, blank, with errors, or after a
// successful submission.
type ContactData struct {
	Form      leads.Input
	Errors    map[string]string
	Interests []string
	Sent      bool
}

// MinTOCHeadings is the number of headings a post needs before the table
// of contents is shown.
const MinTOCHeadings = 3

// Engine holds the parsed public templates.
type Engine struct {
	pages    map[string]*template.Template
	siteName string
	baseURL  string
	copy     *copyCache
}

// New parses every public page together with layout.html. baseURL is the
// absolute site URL used for canonical links, the sitemap and the feed.
func New(siteName, baseURL string) (*Engine, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"hasError": func(errs map[string]string, field string) bool {
			_, ok := errs[field]
			return ok
		},
	}

	entries, err := fs.ReadDir(publicFS, "templates/public")
	if err != nil {
		return nil, fmt.Errorf("read public templates: %w", err)
	}

	e := &Engine{
		pages:    make(map[string]*template.Template),
		siteName: siteName,
		baseURL:  strings.TrimRight(baseURL, "/"),
		copy:     newCopyCache(),
	}
	for _, entry := range entries {
		file := entry.Name()
		if file == "layout.html" || !strings.HasSuffix(file, ".html") {
			continue
		}
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(publicFS,
			"templates/public/layout.html", "templates/public/"+file)
		if err != nil {
			return nil, fmt.Errorf("parse public template %s: %w", file, err)
		}
		e.pages[strings.TrimSuffix(file, ".html")] = tmpl
	}
	return e, nil
}

// Has reports whether a page template exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}

// Render executes page name inside the layout.
func (e *Engine) Render(name string, page *Page) ([]byte, error) {
	tmpl, ok := e.pages[name]
	if !ok {
		return nil, fmt.Errorf("public template %q not found", name)
	}
	if page.Site.Name == "" {
		page.Site.Name = e.siteName
	}
	if page.Site.BaseURL == "" {
		page.Site.BaseURL = e.baseURL
	}
	if page.Site.Year == 0 {
		page.Site.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		return nil, fmt.Errorf("execute public template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Site builds the layout chrome from the stored settings.
func (e *Engine) Site(settings models.SiteSettings) Site {
	return Site{
		Name:         e.siteName,
		BaseURL:      e.baseURL,
		Tagline:      settings.Get(models.SettingSiteTagline, ""),
		ContactEmail: settings.Get(models.SettingContactEmail, ""),
		ContactPhone: settings.Get(models.SettingContactPhone, ""),
		WhatsApp:     whatsAppLink(settings.Get(models.SettingWhatsApp, "")),
		InstagramURL: settings.Get(models.SettingInstagramURL, ""),
		LinkedInURL:  settings.Get(models.SettingLinkedInURL, ""),
		HasPortfolio: settings.HasPortfolio(),
		Year:         time.Now().Year(),
	}
}

// Markdown renders a Markdown setting, reusing the previous result while
// the source is unchanged.
func (e *Engine) Markdown(key, source string) template.HTML {
	return e.copy.render(key, source)
}

// URL joins path segments onto the base URL. Segments are path-escaped.
func (e *Engine) URL(segments ...string) string {
	var b strings.Builder
	b.WriteString(e.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	if len(segments) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

// PostURL is the canonical URL of a post.
func (e *Engine) PostURL(slug string) string {
	return e.URL("blog", slug)
}

// Card converts a post into its listing form.
func (e *Engine) Card(p *models.BlogPost) PostCard {
	c := PostCard{
		Title:    p.Title,
		URL:      "/blog/" + url.PathEscape(p.Slug),
		Excerpt:  pipeline.Excerpt(p.Excerpt, p.Content, 200),
		Date:     p.CreatedAt,
		ReadTime: pipeline.EstimateReadTime(p.Content, 0),
	}
	if p.FeaturedImageURL != nil {
		c.ImageURL = *p.FeaturedImageURL
	}
	return c
}

// Cards converts a slice of posts.
func (e *Engine) Cards(posts []models.BlogPost) []PostCard {
	cards := make([]PostCard, len(posts))
	for i := range posts {
		cards[i] = e.Card(&posts[i])
	}
	return cards
}

// Post builds the article view. The table of contents is left empty for
// posts with fewer than MinTOCHeadings headings.
func (e *Engine) Post(p *models.BlogPost, related []models.BlogPost, preview bool) PostData {
	d := PostData{
		Title:    p.Title,
		Date:     p.CreatedAt,
		Updated:  p.LastModified(),
		ReadTime: pipeline.EstimateReadTime(p.Content, 0),
		Nodes:    pipeline.Render(p.Content),
		Related:  e.Cards(related),
		Preview:  preview,
	}
	if p.FeaturedImageURL != nil {
		d.ImageURL = *p.FeaturedImageURL
	}
	// Previews live at a secret URL and are not shared.
	if !preview {
		d.Share = e.ShareLinks(p.Slug, p.Title)
	}
	if toc := pipeline.Headings(p.Content); len(toc) >= MinTOCHeadings {
		d.TOC = toc
	}
	return d
}

// whatsAppLink turns a phone number into a wa.me link. Anything that is
// already a URL is returned unchanged.
func whatsAppLink(number string) string {
	if number == "" || strings.HasPrefix(number, "http") {
		return number
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}
	return "https://wa.me/" + digits
}
