package engine

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html/template"
	"time"

	"estatepress/internal/models"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Sitemap lists the static pages, any extra top-level pages and every
// published post.
func (e *Engine) Sitemap(posts []models.BlogPost, pages ...string) ([]byte, error) {
	urls := []sitemapURL{
		{Loc: e.URL()},
		{Loc: e.URL("blog")},
		{Loc: e.URL("contact")},
	}
	for _, page := range pages {
		urls = append(urls, sitemapURL{Loc: e.URL(page)})
	}
	for i := range posts {
		urls = append(urls, sitemapURL{
			Loc:     e.PostURL(posts[i].Slug),
			LastMod: posts[i].LastModified().Format("2006-01-02"),
		})
	}
	return encodeXML(sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	})
}

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// Feed is the RSS 2.0 feed of the given posts.
func (e *Engine) Feed(description string, posts []models.BlogPost) ([]byte, error) {
	items := make([]rssItem, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		link := e.PostURL(p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        link,
			Description: e.Card(p).Excerpt,
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
			GUID:        link,
		})
	}
	return encodeXML(rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       e.siteName,
			Link:        e.URL(),
			Description: description,
			Items:       items,
		},
	})
}

func encodeXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Robots is robots.txt: everything but the admin area, plus the sitemap.
func (e *Engine) Robots() []byte {
	return []byte("User-agent: *\nDisallow: /admin/\n\nSitemap: " + e.URL("sitemap.xml") + "\n")
}

// BlogPostingJSONLD is the schema.org BlogPosting block for a post page.
// json.Marshal escapes <, > and &, so the result is safe inside a script
// element.
func (e *Engine) BlogPostingJSONLD(p *models.BlogPost) template.JS {
	postURL := e.PostURL(p.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Title,
		"description":   e.Card(p).Excerpt,
		"datePublished": p.CreatedAt.Format(time.RFC3339),
		"dateModified":  p.LastModified().Format(time.RFC3339),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
		"author": map[string]string{
			"@type": "Person",
			"name":  e.siteName,
		},
	}
	if p.FeaturedImageURL != nil && *p.FeaturedImageURL != "" {
		data["image"] = *p.FeaturedImageURL
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}
