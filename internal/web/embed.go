// ABOUTME: Embeds HTML templates, markdown copy and the stylesheet into the binary
// ABOUTME: Provides templateFS, contentFS and staticFS for loading at startup

package web

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed content/*.md content/features/*.md
var contentFS embed.FS

//go:embed static/*.css
var staticFS embed.FS
