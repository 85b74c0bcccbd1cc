// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for estatepress. Handlers are
// grouped by concern (admin, auth, public) and receive their dependencies
// through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"estatepress/internal/cache"
	"estatepress/internal/engine"
	"estatepress/internal/middleware"
	"estatepress/internal/models"
	"estatepress/internal/preview"
	"estatepress/internal/render"
	"estatepress/internal/session"
	"estatepress/internal/storage"
	"estatepress/internal/store"
)

const (
	leadsPerPage  = 25
	mediaPerPage  = 60
	dashboardRows = 5
)

// Admin groups all admin panel HTTP handlers and their dependencies.
type Admin struct {
	renderer      *render.Renderer
	sessions      *session.Store
	posts         *store.PostStore
	leads         *store.LeadStore
	users         *store.UserStore
	settings      *store.SiteSettingStore
	mediaStore    *store.MediaStore
	media         *storage.Media
	storageClient *storage.Client
	previews      *preview.Tokens
	engine        *engine.Engine
	pageCache     *cache.PageCache
	cacheLog      *store.CacheLogStore
}

// NewAdmin creates the Admin handler group. media and storageClient are nil
// when object storage is not configured.
func NewAdmin(renderer *render.Renderer, sessions *session.Store, posts *store.PostStore, leads *store.LeadStore, users *store.UserStore, settings *store.SiteSettingStore, mediaStore *store.MediaStore, media *storage.Media, storageClient *storage.Client, previews *preview.Tokens, eng *engine.Engine, pageCache *cache.PageCache, cacheLog *store.CacheLogStore) *Admin {
	return &Admin{
		renderer:      renderer,
		sessions:      sessions,
		posts:         posts,
		leads:         leads,
		users:         users,
		settings:      settings,
		mediaStore:    mediaStore,
		media:         media,
		storageClient: storageClient,
		previews:      previews,
		engine:        eng,
		pageCache:     pageCache,
		cacheLog:      cacheLog,
	}
}

// Dashboard renders post, lead and media counts with the latest activity.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	published, drafts := true, false
	publishedCount, _ := a.posts.Count(&published)
	draftCount, _ := a.posts.Count(&drafts)
	leadCount, _ := a.leads.Count()
	mediaCount, _ := a.mediaStore.Count()

	recentLeads, err := a.leads.List(dashboardRows, 0)
	if err != nil {
		slog.Error("list recent leads failed", "error", err)
	}
	recentPosts, err := a.posts.List(store.PostFilter{Limit: dashboardRows})
	if err != nil {
		slog.Error("list recent posts failed", "error", err)
	}
	refreshes, err := a.cacheLog.RecentEntries(dashboardRows)
	if err != nil {
		slog.Warn("list cache refreshes failed", "error", err)
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"PublishedCount": publishedCount,
			"DraftCount":     draftCount,
			"LeadCount":      leadCount,
			"MediaCount":     mediaCount,
			"RecentLeads":    recentLeads,
			"RecentPosts":    recentPosts,
			"Refreshes":      refreshes,
		},
	})
}

// --- Leads ---

// LeadsList renders contact form submissions, newest first.
func (a *Admin) LeadsList(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	total, err := a.leads.Count()
	if err != nil {
		slog.Error("count leads failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	items, err := a.leads.List(leadsPerPage, (page-1)*leadsPerPage)
	if err != nil {
		slog.Error("list leads failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "leads_list", &render.PageData{
		Title:   "Leads",
		Section: "leads",
		Data: map[string]any{
			"Leads":    items,
			"Total":    total,
			"Page":     page,
			"PrevPage": page - 1,
			"NextPage": page + 1,
			"HasNext":  page*leadsPerPage < total,
		},
	})
}

// --- Site settings ---

// SettingsPage renders the site copy form.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	values, err := a.settings.All()
	if err != nil {
		slog.Error("load settings failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Site copy",
		Section: "settings",
		Data:    map[string]any{"Fields": settingFields(values)},
	})
}

// SettingsSave stores every known key and clears the whole page cache,
// since site copy appears in every public layout.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	values := make(map[string]string, len(models.SettingKeys))
	for _, key := range models.SettingKeys {
		values[key] = strings.TrimSpace(r.PostFormValue(key))
	}

	if errs := validateSettings(values); len(errs) > 0 {
		a.renderer.PageStatus(w, r, http.StatusUnprocessableEntity, "settings", &render.PageData{
			Title:   "Site copy",
			Section: "settings",
			Data:    map[string]any{"Fields": settingFields(values), "Errors": errs},
		})
		return
	}

	if err := a.settings.SetMany(values); err != nil {
		slog.Error("save settings failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.invalidateAll(r.Context())

	a.renderer.Page(w, r, "settings", &render.PageData{
		Title:   "Site copy",
		Section: "settings",
		Data:    map[string]any{"Fields": settingFields(values)},
		Flashes: []render.Flash{{Type: "success", Message: "Site copy saved."}},
	})
}

// --- Users ---

// UsersList renders the admin accounts. Admin role only.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "users_list", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data:    map[string]any{"Users": users},
	})
}

// UserResetTwoFA clears another user's TOTP enrolment and signs them out
// everywhere, forcing a fresh 2FA setup on their next login.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	var actor uuid.UUID
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		actor = sess.UserID
	}
	if actor == id {
		http.Error(w, "You cannot reset your own 2FA.", http.StatusForbidden)
		return
	}

	user, err := a.users.FindByID(id)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if err := a.users.ResetTOTP(id); err != nil {
		slog.Error("reset 2fa failed", "error", err, "user_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	revoked, err := a.sessions.DestroyUser(r.Context(), id)
	if err != nil {
		slog.Warn("revoke sessions failed", "error", err, "user_id", id)
	}
	slog.Info("2fa reset", "user_id", id, "by", actor, "sessions_revoked", revoked)

	redirectTo(w, r, "/admin/users")
}

// --- Cache helpers ---

// invalidatePost clears the cached pages a post appears on. Both slugs are
// cleared when a post was renamed.
func (a *Admin) invalidatePost(ctx context.Context, id uuid.UUID, action string, slugs ...string) {
	seen := map[string]bool{}
	for _, s := range slugs {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		a.pageCache.InvalidatePost(ctx, s)
	}
	a.cacheLog.Log(store.CacheEntityPost, id, action)
}

func (a *Admin) invalidateAll(ctx context.Context) {
	a.pageCache.InvalidateAll(ctx)
	a.cacheLog.Log(store.CacheEntitySettings, uuid.Nil, "update")
}

// --- Response helpers ---

// redirectTo navigates the whole page, with HX-Redirect for HTMX callers.
func redirectTo(w http.ResponseWriter, r *http.Request, to string) {
	if middleware.IsHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json response write failed", "error", err)
	}
}

// writeJSONError writes {"error": msg}.
func writeJSONError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// maxPage bounds ?page= so list offsets cannot overflow.
const maxPage = 100_000

// pageParam reads ?page=, defaulting to 1 and capped at maxPage.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, maxPage)
}
