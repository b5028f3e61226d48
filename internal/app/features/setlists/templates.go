// internal/app/features/setlists/templates.go
package setlists

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "setlists",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
