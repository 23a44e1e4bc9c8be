// Package static embeds the API docs assets served at /docs and /static.
package static

import "embed"

//go:embed openapi.html openapi.json
var FS embed.FS
