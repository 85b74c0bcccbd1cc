package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"estatepress/internal/document"
	"estatepress/internal/models"
	"estatepress/internal/slug"
	"estatepress/internal/store"
)

// Validation limits for post and settings fields.
const (
	maxTitleLen    = 300
	maxSlugLen     = slug.MaxLength
	maxExcerptLen  = 500
	maxMetaDescLen = 320
	maxURLLen      = 2048
	maxContentLen  = 1 << 20
	maxSettingLen  = 20_000
)

// postForm is the post editor form as submitted.
type postForm struct {
	Title            string
	Slug             string
	Excerpt          string
	MetaDescription  string
	FeaturedImageURL string
	Content          string // document JSON
	Published        bool
}

func parsePostForm(r *http.Request) postForm {
	return postForm{
		Title:            strings.TrimSpace(r.FormValue("title")),
		Slug:             strings.TrimSpace(r.FormValue("slug")),
		Excerpt:          strings.TrimSpace(r.FormValue("excerpt")),
		MetaDescription:  strings.TrimSpace(r.FormValue("meta_description")),
		FeaturedImageURL: strings.TrimSpace(r.FormValue("featured_image_url")),
		Content:          r.FormValue("content"),
		Published:        r.FormValue("published") == "1",
	}
}

// formFromPost fills the editor form from a stored post.
func formFromPost(p *models.BlogPost) (postForm, error) {
	content, err := p.Content.MarshalJSON()
	if err != nil {
		return postForm{}, fmt.Errorf("encode content: %w", err)
	}
	return postForm{
		Title:            p.Title,
		Slug:             p.Slug,
		Excerpt:          deref(p.Excerpt),
		MetaDescription:  deref(p.MetaDescription),
		FeaturedImageURL: deref(p.FeaturedImageURL),
		Content:          string(content),
		Published:        p.Published,
	}, nil
}

// validate checks the form and decodes its document. The returned map is
// keyed by form field and is empty when the form is valid.
func (f postForm) validate() (document.Document, map[string]string) {
	errs := map[string]string{}

	switch {
	case f.Title == "":
		errs["title"] = "Title is required."
	case utf8.RuneCountInString(f.Title) > maxTitleLen:
		errs["title"] = fmt.Sprintf("Title is too long (max %d characters).", maxTitleLen)
	}
	if len(f.Slug) > maxSlugLen {
		errs["slug"] = fmt.Sprintf("Slug is too long (max %d characters).", maxSlugLen)
	}
	if utf8.RuneCountInString(f.Excerpt) > maxExcerptLen {
		errs["excerpt"] = fmt.Sprintf("Excerpt is too long (max %d characters).", maxExcerptLen)
	}
	if utf8.RuneCountInString(f.MetaDescription) > maxMetaDescLen {
		errs["meta_description"] = fmt.Sprintf("Meta description is too long (max %d characters).", maxMetaDescLen)
	}
	if f.FeaturedImageURL != "" && !validHTTPURL(f.FeaturedImageURL) {
		errs["featured_image_url"] = "Featured image must be an http or https URL."
	}

	var doc document.Document
	if len(f.Content) > maxContentLen {
		errs["content"] = "Content is too large."
	} else if d, err := document.Parse([]byte(f.Content)); err != nil {
		errs["content"] = "Content is not a valid block document."
	} else {
		doc = d
	}

	if _, bad := errs["content"]; !bad && f.Published {
		if err := document.ValidateForPublish(doc); errors.Is(err, document.ErrInvalidDocument) {
			errs["content"] = "A published post needs at least one content block."
		}
	}
	return doc, errs
}

// slugBase returns the normalized slug requested by the form, falling back
// to one derived from the title.
func (f postForm) slugBase() string {
	if f.Slug != "" {
		return slug.Generate(f.Slug)
	}
	return slug.Generate(f.Title)
}

// fields converts the form into a full store update.
func (f postForm) fields(slugValue string, doc document.Document) store.PostFields {
	excerpt := optional(f.Excerpt)
	metaDesc := optional(f.MetaDescription)
	image := optional(f.FeaturedImageURL)
	return store.PostFields{
		Title:            &f.Title,
		Slug:             &slugValue,
		Excerpt:          &excerpt,
		MetaDescription:  &metaDesc,
		FeaturedImageURL: &image,
		Content:          &doc,
		Published:        &f.Published,
	}
}

// settingField describes one input on the site copy form.
type settingField struct {
	Key       string
	Label     string
	Value     string
	Type      string
	Multiline bool
	Markdown  bool
	YAML      bool
}

var settingLabels = map[string]settingField{
	models.SettingSiteTagline:     {Label: "Tagline", Type: "text"},
	models.SettingHeroTitle:       {Label: "Hero title", Type: "text"},
	models.SettingHeroSubtitle:    {Label: "Hero subtitle", Multiline: true},
	models.SettingHeroImageURL:    {Label: "Hero image URL", Type: "url"},
	models.SettingBiography:       {Label: "Biography", Multiline: true, Markdown: true},
	models.SettingServices:        {Label: "Services", Multiline: true, Markdown: true},
	models.SettingAboutStats:      {Label: "About figures", Multiline: true, YAML: true},
	models.SettingPortfolioTitle:  {Label: "Portfolio title", Type: "text"},
	models.SettingPortfolioIntro:  {Label: "Portfolio subtitle", Multiline: true},
	models.SettingListings:        {Label: "Portfolio listings", Multiline: true, YAML: true},
	models.SettingProfile:         {Label: "Profile", Multiline: true, YAML: true},
	models.SettingContactEmail:    {Label: "Contact email", Type: "email"},
	models.SettingContactPhone:    {Label: "Contact phone", Type: "tel"},
	models.SettingWhatsApp:        {Label: "WhatsApp number", Type: "tel"},
	models.SettingInstagramURL:    {Label: "Instagram URL", Type: "url"},
	models.SettingLinkedInURL:     {Label: "LinkedIn URL", Type: "url"},
	models.SettingThankYouSubject: {Label: "Thank-you email subject", Type: "text"},
}

// settingFields builds the form rows in display order from current values.
func settingFields(values map[string]string) []settingField {
	out := make([]settingField, 0, len(models.SettingKeys))
	for _, key := range models.SettingKeys {
		f := settingLabels[key]
		f.Key = key
		f.Value = values[key]
		out = append(out, f)
	}
	return out
}

// validateSettings checks submitted site copy. Empty values are allowed
// everywhere; the public site falls back to defaults for them.
func validateSettings(values map[string]string) map[string]string {
	errs := map[string]string{}
	for _, key := range models.SettingKeys {
		v := values[key]
		label := settingLabels[key].Label
		if utf8.RuneCountInString(v) > maxSettingLen {
			errs[key] = label + " is too long."
			continue
		}
		if v == "" {
			continue
		}
		if settingLabels[key].YAML {
			if msg := validateYAMLSetting(key, v); msg != "" {
				errs[key] = label + ": " + msg
			}
			continue
		}
		switch settingLabels[key].Type {
		case "url":
			if !validHTTPURL(v) {
				errs[key] = label + " must be an http or https URL."
			}
		case "email":
			if addr, err := mail.ParseAddress(v); err != nil || addr.Address != v {
				errs[key] = label + " must be a valid email address."
			}
		}
	}
	return errs
}

// validateYAMLSetting parses a structured setting and checks the URLs in
// it. It returns an empty string when the value is usable.
func validateYAMLSetting(key, v string) string {
	var links []string
	switch key {
	case models.SettingProfile:
		p, err := models.ParseProfile(v)
		if err != nil {
			return err.Error()
		}
		if p != nil {
			links = p.Links()
		}
	case models.SettingListings:
		listings, err := models.ParseListings(v)
		if err != nil {
			return err.Error()
		}
		for _, l := range listings {
			if l.ImageURL != "" {
				links = append(links, l.ImageURL)
			}
		}
	case models.SettingAboutStats:
		if _, err := models.ParseStats(v); err != nil {
			return err.Error()
		}
	}
	for _, u := range links {
		if !validHTTPURL(u) {
			return u + " is not an http or https URL."
		}
	}
	return ""
}

func validHTTPURL(s string) bool {
	if len(s) > maxURLLen {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
