// Package translations embeds the per-locale message catalogs.
package translations

import "embed"

//go:embed *.yml
var FS embed.FS
