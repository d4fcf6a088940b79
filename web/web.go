// Package web embeds the console's HTML templates and static assets so the
// server binary is self-contained.
package web

import "embed"

//go:embed templates static
var FS embed.FS
