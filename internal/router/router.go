// Package router sets up all HTTP routes and middleware chains for
// estatepress. It organizes routes into public and admin groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"estatepress/internal/handlers"
	"estatepress/internal/middleware"
	"estatepress/internal/session"
	"estatepress/web"
)

// Options carries the router settings that depend on the environment.
type Options struct {
	// SecureCookies marks the CSRF cookie Secure and enables HSTS.
	SecureCookies bool

	// LoginLimiter and ContactLimiter throttle their POST routes per client
	// IP. Nil disables them.
	LoginLimiter   *middleware.RateLimiter
	ContactLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders(opts.SecureCookies))
	r.Use(middleware.LoadSession(sessionStore))

	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	// Admin routes require CSRF protection and are never indexed.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))
		r.Use(middleware.NoIndex)

		// Auth pages, accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.With(limit(opts.LoginLimiter)).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA requires a session but not a completed 2FA step.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Authenticated and 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", admin.Dashboard)
			r.Get("/dashboard", admin.Dashboard)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", admin.PostsList)
				r.Get("/new", admin.PostNew)
				r.Post("/", admin.PostCreate)
				r.Get("/{id}/edit", admin.PostEdit)
				r.Post("/{id}", admin.PostUpdate)
				r.Delete("/{id}", admin.PostDelete)
				r.Post("/{id}/blocks", admin.PostBlocks)
				r.Post("/{id}/images", admin.PostImage)
				r.Post("/{id}/preview-link", admin.PostPreviewLink)
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", admin.MediaLibrary)
				r.Post("/", admin.MediaUpload)
				r.Post("/editor-upload", admin.MediaEditorUpload)
				r.Get("/{id}", admin.MediaServe)
				r.Delete("/{id}", admin.MediaDelete)
			})

			r.Get("/leads", admin.LeadsList)

			r.Get("/settings", admin.SettingsPage)
			r.Post("/settings", admin.SettingsSave)

			// User management, admin only.
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", admin.UsersList)
				r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
			})
		})
	})

	// Public site. Feeds and pages are gzip-compressed.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress)

		r.Get("/", public.Home)
		r.Get("/portfolio", public.Portfolio)
		r.Get("/blog", public.Blog)
		r.Get("/blog/{slug}", public.Post)
		r.Get("/contact", public.ContactPage)
		r.With(limit(opts.ContactLimiter)).Post("/contact", public.ContactSubmit)
		r.Get("/sitemap.xml", public.Sitemap)
		r.Get("/feed.xml", public.Feed)
		r.Get("/robots.txt", public.Robots)
	})

	r.NotFound(public.NotFound)

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: static assets missing: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}
