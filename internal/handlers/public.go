// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"estatepress/internal/cache"
	"estatepress/internal/engine"
	"estatepress/internal/leads"
	"estatepress/internal/models"
	"estatepress/internal/pipeline"
	"estatepress/internal/preview"
	"estatepress/internal/store"
)

const (
	homePosts    = 3
	blogPerPage  = 9
	relatedPosts = 3
	feedPosts    = 20

	htmlContentType = "text/html; charset=utf-8"
)

// errPageNotFound makes a page builder answer 404.
var errPageNotFound = errors.New("page not found")

// Public serves the public site. Published pages are looked up in the
// Valkey page cache first and stored there on a miss; preview requests
// bypass the cache entirely.
type Public struct {
	engine    *engine.Engine
	posts     *store.PostStore
	settings  *store.SiteSettingStore
	gate      *preview.Gate
	leads     *leads.Service
	pageCache *cache.PageCache
}

// NewPublic creates the Public handler group.
func NewPublic(eng *engine.Engine, posts *store.PostStore, settings *store.SiteSettingStore, gate *preview.Gate, leadService *leads.Service, pageCache *cache.PageCache) *Public {
	return &Public{
		engine:    eng,
		posts:     posts,
		settings:  settings,
		gate:      gate,
		leads:     leadService,
		pageCache: pageCache,
	}
}

// Home renders the hero, biography, services and latest posts.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.HomeKey(), htmlContentType, func() ([]byte, error) {
		posts, err := p.posts.List(store.PostFilter{Published: boolPtr(true), Limit: homePosts})
		if err != nil {
			return nil, err
		}
		s := p.siteSettings()

		return p.engine.Render("home", &engine.Page{
			Site:        p.engine.Site(s),
			Description: s.Get(models.SettingSiteTagline, ""),
			Canonical:   p.engine.URL(),
			Image:       s.Get(models.SettingHeroImageURL, ""),
			Section:     "home",
			Data: engine.HomeData{
				HeroTitle:    s.Get(models.SettingHeroTitle, ""),
				HeroSubtitle: s.Get(models.SettingHeroSubtitle, ""),
				HeroImageURL: s.Get(models.SettingHeroImageURL, ""),
				Biography:    p.engine.Markdown(models.SettingBiography, s.Get(models.SettingBiography, "")),
				AboutStats:   p.engine.AboutStats(s),
				Services:     p.engine.Markdown(models.SettingServices, s.Get(models.SettingServices, "")),
				Portfolio:    p.engine.Portfolio(s),
				Posts:        p.engine.Cards(posts),
			},
		})
	})
}

// Portfolio renders the profile, career timeline and showcased listings.
// It answers 404 until either a profile or listings have been written.
func (p *Public) Portfolio(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.PortfolioKey(), htmlContentType, func() ([]byte, error) {
		s := p.siteSettings()
		data := p.engine.Portfolio(s)
		if data.Empty() {
			return nil, errPageNotFound
		}

		page := &engine.Page{
			Site:        p.engine.Site(s),
			Title:       data.Title,
			Description: data.Subtitle,
			Canonical:   p.engine.URL("portfolio"),
			Section:     "portfolio",
			Data:        data,
		}
		if data.Profile != nil {
			page.Title = data.Profile.Name
			page.Image = data.Profile.ImageURL
			if data.Profile.Title != "" {
				page.Description = data.Profile.Title
			}
		}
		return p.engine.Render("portfolio", page)
	})
}

// Blog renders one page of published posts, newest first.
func (p *Public) Blog(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	p.cached(w, r, cache.BlogKey(page), htmlContentType, func() ([]byte, error) {
		posts, err := p.posts.List(store.PostFilter{
			Published: boolPtr(true),
			Limit:     blogPerPage + 1,
			Offset:    (page - 1) * blogPerPage,
		})
		if err != nil {
			return nil, err
		}
		if page > 1 && len(posts) == 0 {
			return nil, errPageNotFound
		}

		data := engine.BlogData{Page: page}
		if len(posts) > blogPerPage {
			posts = posts[:blogPerPage]
			data.NextURL = "/blog?page=" + strconv.Itoa(page+1)
		}
		switch {
		case page == 2:
			data.PrevURL = "/blog"
		case page > 2:
			data.PrevURL = "/blog?page=" + strconv.Itoa(page-1)
		}
		data.Posts = p.engine.Cards(posts)

		canonical := p.engine.URL("blog")
		if page > 1 {
			canonical += "?page=" + strconv.Itoa(page)
		}
		s := p.siteSettings()
		return p.engine.Render("blog_list", &engine.Page{
			Site:        p.engine.Site(s),
			Title:       "Blog",
			Description: s.Get(models.SettingSiteTagline, ""),
			Canonical:   canonical,
			Section:     "blog",
			Data:        data,
		})
	})
}

// Post renders a single article. With ?token= it may show a draft; such
// responses never touch the page cache and are marked noindex. Missing
// and hidden posts both answer 404.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	token := r.URL.Query().Get("token")

	if token == "" {
		p.cached(w, r, cache.PostKey(slugParam), htmlContentType, func() ([]byte, error) {
			post, err := p.gate.Fetch(slugParam, "")
			if err != nil {
				return nil, err
			}
			return p.renderPost(post, false)
		})
		return
	}

	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	post, err := p.gate.Fetch(slugParam, token)
	if errors.Is(err, preview.ErrNotFound) {
		p.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("preview fetch failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := p.renderPost(post, !post.Published)
	if err != nil {
		slog.Error("render preview failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	write(w, htmlContentType, http.StatusOK, body)
}

func (p *Public) renderPost(post *models.BlogPost, isPreview bool) ([]byte, error) {
	related, err := p.posts.List(store.PostFilter{
		Published:   boolPtr(true),
		ExcludeSlug: post.Slug,
		Limit:       relatedPosts,
	})
	if err != nil {
		slog.Warn("related posts unavailable", "error", err, "slug", post.Slug)
		related = nil
	}

	description := post.Description()
	if description == "" {
		description = pipeline.ExtractPlainText(post.Content, 160)
	}

	return p.engine.Render("post", &engine.Page{
		Site:        p.engine.Site(p.siteSettings()),
		Title:       post.Title,
		Description: description,
		Canonical:   p.engine.PostURL(post.Slug),
		Image:       deref(post.FeaturedImageURL),
		Section:     "blog",
		NoIndex:     isPreview,
		JSONLD:      p.engine.BlogPostingJSONLD(post),
		Data:        p.engine.Post(post, related, isPreview),
	})
}

// ContactPage renders the empty contact form.
func (p *Public) ContactPage(w http.ResponseWriter, r *http.Request) {
	p.renderContact(w, r, http.StatusOK, engine.ContactData{})
}

// ContactSubmit records a lead. The visitor sees the thank-you state as
// soon as the lead is stored, whether or not the email went out.
func (p *Public) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	in := leads.Input{
		Name:             r.FormValue("name"),
		Email:            r.FormValue("email"),
		Phone:            r.FormValue("phone"),
		PropertyInterest: r.FormValue("property_interest"),
		Message:          r.FormValue("message"),
	}

	out, err := p.leads.Submit(r.Context(), in)
	var verr *leads.ValidationError
	switch {
	case errors.As(err, &verr):
		p.renderContact(w, r, http.StatusUnprocessableEntity, engine.ContactData{Form: in.Normalize(), Errors: verr.Fields})
		return
	case err != nil:
		slog.Error("lead submit failed", "error", err)
		p.renderContact(w, r, http.StatusInternalServerError, engine.ContactData{
			Form:   in.Normalize(),
			Errors: map[string]string{"form": "Your message could not be saved. Please try again."},
		})
		return
	}

	slog.Info("lead received", "lead_id", out.Lead.ID, "notified", out.Notified)
	p.renderContact(w, r, http.StatusOK, engine.ContactData{Form: in.Normalize(), Sent: true})
}

func (p *Public) renderContact(w http.ResponseWriter, r *http.Request, status int, data engine.ContactData) {
	data.Interests = leads.PropertyInterests
	body, err := p.engine.Render("contact", &engine.Page{
		Site:        p.engine.Site(p.siteSettings()),
		Title:       "Contact",
		Description: "Get in touch about buying, selling or investing in property.",
		Canonical:   p.engine.URL("contact"),
		Section:     "contact",
		NoIndex:     data.Sent,
		Data:        data,
	})
	if err != nil {
		slog.Error("render contact failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	write(w, htmlContentType, status, body)
}

// Sitemap serves sitemap.xml with every published post.
func (p *Public) Sitemap(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.SitemapKey(), "application/xml; charset=utf-8", func() ([]byte, error) {
		posts, err := p.posts.List(store.PostFilter{Published: boolPtr(true)})
		if err != nil {
			return nil, err
		}
		var pages []string
		if p.siteSettings().HasPortfolio() {
			pages = append(pages, "portfolio")
		}
		return p.engine.Sitemap(posts, pages...)
	})
}

// Feed serves the RSS feed of the latest published posts.
func (p *Public) Feed(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.FeedKey(), "application/rss+xml; charset=utf-8", func() ([]byte, error) {
		posts, err := p.posts.List(store.PostFilter{Published: boolPtr(true), Limit: feedPosts})
		if err != nil {
			return nil, err
		}
		return p.engine.Feed(p.siteSettings().Get(models.SettingSiteTagline, ""), posts)
	})
}

// Robots serves robots.txt.
func (p *Public) Robots(w http.ResponseWriter, r *http.Request) {
	write(w, "text/plain; charset=utf-8", http.StatusOK, p.engine.Robots())
}

// NotFound renders the public 404 page.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	body, err := p.engine.Render("not_found", &engine.Page{
		Site:    p.engine.Site(p.siteSettings()),
		Title:   "Page not found",
		NoIndex: true,
	})
	if err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, r)
		return
	}
	write(w, htmlContentType, http.StatusNotFound, body)
}

// cached answers from the page cache, or builds, stores and answers.
// A builder returning errPageNotFound or preview.ErrNotFound yields the
// 404 page, which is never cached.
func (p *Public) cached(w http.ResponseWriter, r *http.Request, key, contentType string, build func() ([]byte, error)) {
	ctx := r.Context()
	if body, ok := p.pageCache.Get(ctx, key); ok {
		w.Header().Set("X-Cache", "HIT")
		write(w, contentType, http.StatusOK, body)
		return
	}

	body, err := build()
	if errors.Is(err, errPageNotFound) || errors.Is(err, preview.ErrNotFound) {
		p.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("render public page failed", "error", err, "key", key)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, key, body)
	w.Header().Set("X-Cache", "MISS")
	write(w, contentType, http.StatusOK, body)
}

// siteSettings loads the site copy. A store failure degrades to defaults.
func (p *Public) siteSettings() models.SiteSettings {
	s, err := p.settings.All()
	if err != nil {
		slog.Warn("site settings unavailable", "error", err)
		return models.SiteSettings{}
	}
	return s
}

func write(w http.ResponseWriter, contentType string, status int, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)
}

func boolPtr(b bool) *bool { return &b }
