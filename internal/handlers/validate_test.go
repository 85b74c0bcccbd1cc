package handlers

import (
	"strings"
	"testing"

	"estatepress/internal/models"
)

const oneParagraph = `{"version":1,"blocks":[{"type":"paragraph","data":{"text":"Hello"}}]}`

func TestPostFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      postForm
		wantField string // empty means valid
	}{
		{"valid draft", postForm{Title: "Market update", Content: oneParagraph}, ""},
		{"valid empty draft", postForm{Title: "Market update", Content: `{"version":1,"blocks":[]}`}, ""},
		{"empty content draft", postForm{Title: "Market update"}, ""},
		{"valid published", postForm{Title: "Market update", Content: oneParagraph, Published: true}, ""},
		{"missing title", postForm{Content: oneParagraph}, "title"},
		{"title too long", postForm{Title: strings.Repeat("a", maxTitleLen+1), Content: oneParagraph}, "title"},
		{"slug too long", postForm{Title: "t", Slug: strings.Repeat("a", maxSlugLen+1), Content: oneParagraph}, "slug"},
		{"excerpt too long", postForm{Title: "t", Excerpt: strings.Repeat("e", maxExcerptLen+1), Content: oneParagraph}, "excerpt"},
		{"meta too long", postForm{Title: "t", MetaDescription: strings.Repeat("m", maxMetaDescLen+1), Content: oneParagraph}, "meta_description"},
		{"relative image", postForm{Title: "t", FeaturedImageURL: "/img.png", Content: oneParagraph}, "featured_image_url"},
		{"ftp image", postForm{Title: "t", FeaturedImageURL: "ftp://host/img.png", Content: oneParagraph}, "featured_image_url"},
		{"invalid json", postForm{Title: "t", Content: `{"blocks":`}, "content"},
		{"publish empty", postForm{Title: "t", Content: `{"version":1,"blocks":[]}`, Published: true}, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := tt.form.validate()
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestPostFormValidateDecodesDocument(t *testing.T) {
	doc, errs := postForm{Title: "t", Content: oneParagraph}.validate()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if doc.Len() != 1 {
		t.Errorf("blocks: got %d, want 1", doc.Len())
	}
}

func TestPostFormSlugBase(t *testing.T) {
	tests := []struct {
		name string
		form postForm
		want string
	}{
		{"from title", postForm{Title: "Buying in Bucharest"}, "buying-in-bucharest"},
		{"explicit slug wins", postForm{Title: "Ignored", Slug: "My Custom Slug"}, "my-custom-slug"},
		{"symbols only", postForm{Title: "!!!"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.form.slugBase(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPostFormFieldsClearsEmptyOptionals(t *testing.T) {
	f := postForm{Title: "t", Excerpt: "", MetaDescription: "desc"}
	doc, _ := f.validate()
	fields := f.fields("t", doc)

	if fields.Excerpt == nil || *fields.Excerpt != nil {
		t.Error("empty excerpt should be set to NULL")
	}
	if fields.MetaDescription == nil || *fields.MetaDescription == nil || **fields.MetaDescription != "desc" {
		t.Error("meta description should be set")
	}
	if fields.Slug == nil || *fields.Slug != "t" {
		t.Error("slug should be set")
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		wantError bool
	}{
		{"empty allowed", models.SettingInstagramURL, "", false},
		{"https url", models.SettingInstagramURL, "https://instagram.com/agent", false},
		{"bare host", models.SettingLinkedInURL, "linkedin.com/in/agent", true},
		{"javascript url", models.SettingHeroImageURL, "javascript:alert(1)", true},
		{"valid email", models.SettingContactEmail, "agent@example.com", false},
		{"named email", models.SettingContactEmail, "Agent <agent@example.com>", true},
		{"invalid email", models.SettingContactEmail, "not-an-email", true},
		{"free text", models.SettingHeroTitle, "Find your home", false},
		{"too long", models.SettingBiography, strings.Repeat("b", maxSettingLen+1), true},
		{"profile", models.SettingProfile, "name: Sara Haddad\nimage: https://cdn.example.com/s.jpg", false},
		{"profile syntax", models.SettingProfile, "name: [Sara", true},
		{"profile unknown key", models.SettingProfile, "name: Sara\nfax: 123", true},
		{"profile without name", models.SettingProfile, "title: Consultant", true},
		{"profile script link", models.SettingProfile, "name: Sara\nsocials: {twitter: 'javascript:alert(1)'}", true},
		{"listings", models.SettingListings, "- {title: Villa, price: AED 4M}", false},
		{"listing relative image", models.SettingListings, "- {title: Villa, image: /villa.jpg}", true},
		{"about figures", models.SettingAboutStats, "- {label: Homes sold, value: '340'}", false},
		{"about figures not a list", models.SettingAboutStats, "label: Homes sold", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validateSettings(map[string]string{tt.key: tt.value})
			_, got := errs[tt.key]
			if got != tt.wantError {
				t.Errorf("error on %s: got %v, want %v (%v)", tt.key, got, tt.wantError, errs)
			}
		})
	}
}

func TestSettingFieldsFollowKeyOrder(t *testing.T) {
	fields := settingFields(map[string]string{models.SettingHeroTitle: "Hello"})
	if len(fields) != len(models.SettingKeys) {
		t.Fatalf("fields: got %d, want %d", len(fields), len(models.SettingKeys))
	}
	for i, key := range models.SettingKeys {
		if fields[i].Key != key {
			t.Errorf("field %d: got %q, want %q", i, fields[i].Key, key)
		}
		if fields[i].Label == "" {
			t.Errorf("field %q has no label", key)
		}
	}
	for _, f := range fields {
		if f.Key == models.SettingHeroTitle && f.Value != "Hello" {
			t.Errorf("hero title value: got %q", f.Value)
		}
	}
}

func TestValidHTTPURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com/a.jpg", true},
		{"http://example.com", true},
		{"https://", false},
		{"mailto:a@b.c", false},
		{"https://example.com/" + strings.Repeat("a", maxURLLen), false},
	}
	for _, tt := range tests {
		if got := validHTTPURL(tt.in); got != tt.want {
			t.Errorf("validHTTPURL(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
