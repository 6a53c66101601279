// Package ui holds the HTML templates for the operator-facing pages.
package ui

import "embed"

//go:embed "html"
var Files embed.FS
