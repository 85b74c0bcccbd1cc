// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"estatepress/internal/cache"
	"estatepress/internal/database"
	"estatepress/internal/document"
	"estatepress/internal/engine"
	"estatepress/internal/leads"
	"estatepress/internal/mailer"
	"estatepress/internal/middleware"
	"estatepress/internal/models"
	"estatepress/internal/preview"
	"estatepress/internal/render"
	"estatepress/internal/session"
	"estatepress/internal/store"
)

const (
	testSiteURL       = "https://agent.example.com"
	testStaticToken   = "test-token"
	testPreviewSecret = "test-secret"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "estatepress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "estatepress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Sessions   *session.Store
	Posts      *store.PostStore
	Leads      *store.LeadStore
	UserStore  *store.UserStore
	Settings   *store.SiteSettingStore
	MediaStore *store.MediaStore
	Engine     *engine.Engine
	PageCache  *cache.PageCache
	Previews   *preview.Tokens
	Admin      *Admin
	Auth       *Auth
	Public     *Public
}

// newTestEnv wires the handlers against real stores. Object storage is left
// unconfigured, so media endpoints answer as they would without S3.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New("EstatePress", true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	eng, err := engine.New("EstatePress", testSiteURL)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	posts := store.NewPostStore(db)
	leadStore := store.NewLeadStore(db)
	userStore := store.NewUserStore(db)
	settings := store.NewSiteSettingStore(db)
	mediaStore := store.NewMediaStore(db)
	cacheLog := store.NewCacheLogStore(db)
	pageCache := cache.NewPageCache(vk, time.Minute)
	previews := preview.NewTokens(testStaticToken, testPreviewSecret)
	leadService := leads.NewService(leadStore, mailer.LogMailer{}, settings, "EstatePress", testSiteURL)

	admin := NewAdmin(renderer, sessions, posts, leadStore, userStore, settings,
		mediaStore, nil, nil, previews, eng, pageCache, cacheLog)
	auth := NewAuth(renderer, sessions, userStore, "EstatePress")
	public := NewPublic(eng, posts, settings, preview.NewGate(posts, previews), leadService, pageCache)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Sessions:   sessions,
		Posts:      posts,
		Leads:      leadStore,
		UserStore:  userStore,
		Settings:   settings,
		MediaStore: mediaStore,
		Engine:     eng,
		PageCache:  pageCache,
		Previews:   previews,
		Admin:      admin,
		Auth:       auth,
		Public:     public,
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testAuthorID returns a valid user ID for post creation.
func testAuthorID(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	if err := db.QueryRow("SELECT id FROM users LIMIT 1").Scan(&id); err != nil {
		t.Skipf("skipping: no users in database, run seed first: %v", err)
	}
	return id
}

// insertPost stores a post with one paragraph and removes it when the test
// ends.
func insertPost(t *testing.T, env *testEnv, slugValue string, published bool) *models.BlogPost {
	t.Helper()
	cleanPosts(t, env.DB, slugValue)

	author := testAuthorID(t, env.DB)
	p, err := env.Posts.Insert(&models.BlogPost{
		Title:     "Test " + slugValue,
		Slug:      slugValue,
		Content:   document.New(document.Paragraph{Text: "Body of " + slugValue}),
		Published: published,
		AuthorID:  &author,
	})
	if err != nil {
		t.Fatalf("insert post: %v", err)
	}
	t.Cleanup(func() { cleanPosts(t, env.DB, slugValue) })
	return p
}

// cleanPosts removes test posts by slug.
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", s)
	}
}
