// internal/app/features/songs/templates.go
package songs

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "songs",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
