// Package views embeds the storefront HTML templates so the production
// binary ships self contained.
package views

import "embed"

//go:embed *.html
var FS embed.FS
