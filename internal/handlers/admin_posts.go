package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"estatepress/internal/authoring"
	"estatepress/internal/document"
	"estatepress/internal/middleware"
	"estatepress/internal/models"
	"estatepress/internal/preview"
	"estatepress/internal/render"
	"estatepress/internal/slug"
	"estatepress/internal/storage"
	"estatepress/internal/store"
)

// emptyDocument seeds the editor for a new post.
const emptyDocument = `{"version":1,"blocks":[]}`

// PostsList renders all posts, optionally filtered with ?status=.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	filter := store.PostFilter{}
	status := r.URL.Query().Get("status")
	switch status {
	case "published":
		v := true
		filter.Published = &v
	case "draft":
		v := false
		filter.Published = &v
	default:
		status = "all"
	}

	posts, err := a.posts.List(filter)
	if err != nil {
		slog.Error("list posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "posts_list", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data:    map[string]any{"Posts": posts, "Filter": status},
	})
}

// PostNew renders an empty editor.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	a.renderPostForm(w, r, http.StatusOK, nil, postForm{Content: emptyDocument}, nil)
}

// PostCreate stores a new post and opens it in the editor.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	form := parsePostForm(r)
	doc, errs := form.validate()
	if len(errs) > 0 {
		a.renderPostForm(w, r, http.StatusUnprocessableEntity, nil, form, errs)
		return
	}

	slugValue, errs, err := a.resolveSlug(form, uuid.Nil)
	if err != nil {
		slog.Error("resolve slug failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(errs) > 0 {
		a.renderPostForm(w, r, http.StatusUnprocessableEntity, nil, form, errs)
		return
	}

	p := &models.BlogPost{
		Title:            form.Title,
		Slug:             slugValue,
		Excerpt:          optional(form.Excerpt),
		MetaDescription:  optional(form.MetaDescription),
		FeaturedImageURL: optional(form.FeaturedImageURL),
		Content:          doc,
		Published:        form.Published,
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		p.AuthorID = &sess.UserID
	}

	created, err := a.posts.Insert(p)
	if err != nil {
		slog.Error("create post failed", "error", err, "slug", slugValue)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.linkFeaturedImage(created)
	slog.Info("post created", "id", created.ID, "slug", created.Slug, "published", created.Published)

	if created.Published {
		a.invalidatePost(r.Context(), created.ID, "create", created.Slug)
	}
	http.Redirect(w, r, "/admin/posts/"+created.ID.String()+"/edit", http.StatusSeeOther)
}

// PostEdit renders the editor for an existing post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPost(w, r)
	if !ok {
		return
	}

	form, err := formFromPost(post)
	if err != nil {
		slog.Error("post form build failed", "error", err, "id", post.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var flashes []render.Flash
	if r.URL.Query().Get("saved") == "1" {
		flashes = append(flashes, render.Flash{Type: "success", Message: "Post saved."})
	}
	a.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   "Edit post",
		Section: "posts",
		Data:    map[string]any{"Post": post, "Form": form, "Images": a.postImages(post.ID)},
		Flashes: flashes,
	})
}

// PostUpdate saves the editor form. Publishing an empty document is
// rejected and nothing is written.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPost(w, r)
	if !ok {
		return
	}

	form := parsePostForm(r)
	doc, errs := form.validate()
	if len(errs) > 0 {
		a.renderPostForm(w, r, http.StatusUnprocessableEntity, post, form, errs)
		return
	}

	slugValue, errs, err := a.resolveSlug(form, post.ID)
	if err != nil {
		slog.Error("resolve slug failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(errs) > 0 {
		a.renderPostForm(w, r, http.StatusUnprocessableEntity, post, form, errs)
		return
	}

	updated, err := a.posts.Update(post.ID, form.fields(slugValue, doc))
	if err != nil {
		slog.Error("update post failed", "error", err, "id", post.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	a.linkFeaturedImage(updated)

	if post.Published || updated.Published {
		a.invalidatePost(r.Context(), updated.ID, "update", post.Slug, updated.Slug)
	}
	redirectTo(w, r, "/admin/posts/"+updated.ID.String()+"/edit?saved=1")
}

// PostDelete removes a post. HTMX callers get an empty 200 so the row is
// swapped out.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPost(w, r)
	if !ok {
		return
	}

	if err := a.posts.Delete(post.ID); err != nil {
		slog.Error("delete post failed", "error", err, "id", post.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	slog.Info("post deleted", "id", post.ID, "slug", post.Slug)

	if post.Published {
		a.invalidatePost(r.Context(), post.ID, "delete", post.Slug)
	}

	if middleware.IsHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// blockEdit is the body of POST /admin/posts/{id}/blocks.
type blockEdit struct {
	Action string          `json:"action"` // "upsert" (default), "remove", "move"
	Index  *int            `json:"index"`
	To     int             `json:"to"`
	Block  json.RawMessage `json:"block"`
}

// PostBlocks applies one block edit to the stored document and answers
// with the new document.
func (a *Admin) PostBlocks(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPostJSON(w, r)
	if !ok {
		return
	}

	var edit blockEdit
	if err := json.NewDecoder(io.LimitReader(r.Body, maxContentLen)).Decode(&edit); err != nil {
		writeJSONError(w, "Invalid request body.", http.StatusBadRequest)
		return
	}

	var doc document.Document
	switch edit.Action {
	case "", "upsert":
		var env struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(edit.Block, &env); err != nil || env.Type == "" {
			writeJSONError(w, "Block must have a type.", http.StatusBadRequest)
			return
		}
		block, err := document.DecodeBlock(env.Type, env.Data)
		if err != nil {
			writeJSONError(w, "Block data is invalid.", http.StatusBadRequest)
			return
		}
		doc = authoring.AppendOrUpdateBlock(post.Content, edit.Index, block)
	case "remove":
		if edit.Index == nil {
			writeJSONError(w, "Index is required.", http.StatusBadRequest)
			return
		}
		doc = authoring.RemoveBlock(post.Content, *edit.Index)
	case "move":
		if edit.Index == nil {
			writeJSONError(w, "Index is required.", http.StatusBadRequest)
			return
		}
		doc = authoring.MoveBlock(post.Content, *edit.Index, edit.To)
	default:
		writeJSONError(w, "Unknown action.", http.StatusBadRequest)
		return
	}

	if post.Published {
		if err := document.ValidateForPublish(doc); err != nil {
			writeJSONError(w, "A published post needs at least one content block.", http.StatusUnprocessableEntity)
			return
		}
	}

	updated, err := a.posts.Update(post.ID, store.PostFields{Content: &doc})
	if err != nil || updated == nil {
		slog.Error("save post blocks failed", "error", err, "id", post.ID)
		writeJSONError(w, "Failed to save the document.", http.StatusInternalServerError)
		return
	}
	if updated.Published {
		a.invalidatePost(r.Context(), updated.ID, "update", updated.Slug)
	}

	writeJSON(w, http.StatusOK, map[string]any{"document": updated.Content})
}

// PostImage uploads an image and inserts an image block. A failed upload
// leaves the document untouched; a rejected file answers 4xx and a storage
// failure 502.
func (a *Admin) PostImage(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPostJSON(w, r)
	if !ok {
		return
	}

	data, filename, ok := readUpload(w, r, storage.MaxEditorUpload)
	if !ok {
		return
	}

	var index *int
	if i, err := parseIndex(r.FormValue("index")); err == nil {
		index = &i
	}

	var uploader authoring.Uploader
	if a.media != nil {
		uploader = a.media.ForPost(&post.ID, sessionUserID(r))
	}

	doc, err := authoring.InsertImage(r.Context(), post.Content, index, uploader, data, filename, r.FormValue("caption"))
	if err != nil {
		var ue *authoring.UploadError
		if errors.As(err, &ue) {
			slog.Warn("editor image upload failed", "error", err, "post_id", post.ID)
			writeJSONError(w, uploadMessage(ue.Err), editorUploadStatus(ue.Err))
			return
		}
		slog.Error("insert image failed", "error", err, "post_id", post.ID)
		writeJSONError(w, "Failed to insert the image.", http.StatusInternalServerError)
		return
	}

	updated, err := a.posts.Update(post.ID, store.PostFields{Content: &doc})
	if err != nil || updated == nil {
		slog.Error("save post after image insert failed", "error", err, "id", post.ID)
		writeJSONError(w, "Failed to save the document.", http.StatusInternalServerError)
		return
	}
	if updated.Published {
		a.invalidatePost(r.Context(), updated.ID, "update", updated.Slug)
	}

	at := len(doc.Blocks) - 1
	if index != nil && *index >= 0 && *index < len(doc.Blocks) {
		at = *index
	}
	block, err := document.EncodeBlock(doc.Blocks[at])
	if err != nil {
		slog.Error("encode image block failed", "error", err)
		writeJSONError(w, "Failed to encode the image block.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document": updated.Content,
		"block":    block,
		"index":    at,
	})
}

// PostPreviewLink issues a signed, expiring link to the public post page
// that works while the post is still a draft.
func (a *Admin) PostPreviewLink(w http.ResponseWriter, r *http.Request) {
	post, ok := a.loadPostJSON(w, r)
	if !ok {
		return
	}

	if a.previews == nil || !a.previews.CanSign() {
		writeJSONError(w, "Preview links are not configured.", http.StatusServiceUnavailable)
		return
	}

	token, expires, err := a.previews.Sign(post.Slug, preview.DefaultLinkTTL)
	if err != nil {
		slog.Error("sign preview token failed", "error", err, "id", post.ID)
		writeJSONError(w, "Failed to create a preview link.", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"url":        a.engine.PostURL(post.Slug) + "?token=" + token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

// resolveSlug picks the slug to store. An explicit slug must be free; a
// slug derived from the title gets a numeric suffix until it is.
func (a *Admin) resolveSlug(form postForm, self uuid.UUID) (string, map[string]string, error) {
	base := form.slugBase()
	if base == "" {
		return "", map[string]string{"slug": "Slug must contain letters or digits."}, nil
	}

	taken := func(s string) (bool, error) { return a.posts.SlugExists(s, self) }
	if form.Slug != "" {
		exists, err := taken(base)
		if err != nil {
			return "", nil, err
		}
		if exists {
			return "", map[string]string{"slug": "Slug is already used by another post."}, nil
		}
		return base, nil, nil
	}

	s, err := slug.Unique(base, taken)
	return s, nil, err
}

func (a *Admin) renderPostForm(w http.ResponseWriter, r *http.Request, status int, post *models.BlogPost, form postForm, errs map[string]string) {
	title := "New post"
	if post != nil {
		title = "Edit post"
	}
	a.renderer.PageStatus(w, r, status, "post_form", &render.PageData{
		Title:   title,
		Section: "posts",
		Data:    map[string]any{"Post": post, "Form": form, "Errors": errs},
	})
}

// loadPost resolves {id} for HTML endpoints, writing the error response
// itself when it returns false.
func (a *Admin) loadPost(w http.ResponseWriter, r *http.Request) (*models.BlogPost, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return nil, false
	}
	post, err := a.posts.GetByID(id)
	if err != nil {
		slog.Error("post lookup failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if post == nil {
		http.Error(w, "Not Found", http.StatusNotFound)
		return nil, false
	}
	return post, true
}

// loadPostJSON is loadPost for the editor's JSON endpoints.
func (a *Admin) loadPostJSON(w http.ResponseWriter, r *http.Request) (*models.BlogPost, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, "Invalid ID.", http.StatusBadRequest)
		return nil, false
	}
	post, err := a.posts.GetByID(id)
	if err != nil {
		slog.Error("post lookup failed", "error", err, "id", id)
		writeJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if post == nil {
		writeJSONError(w, "Post not found.", http.StatusNotFound)
		return nil, false
	}
	return post, true
}

func sessionUserID(r *http.Request) uuid.UUID {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess.UserID
	}
	return uuid.Nil
}
