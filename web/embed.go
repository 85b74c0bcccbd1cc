// Package web embeds the static assets (stylesheets and the block editor
// script) served under /static/.
package web

import "embed"

// StaticFS holds web/static/.
//
//go:embed all:static
var StaticFS embed.FS
