package testutil

import (
	"sync"

	"github.com/dalemusser/setliststudio/internal/app/resources"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// bootTemplates boots the shared layout plus every feature template set
// registered by an imported feature package's init.
var bootTemplates = sync.OnceValue(func() error {
	resources.LoadSharedTemplates()
	eng := templates.New(false)
	if err := eng.Boot(zap.NewNop()); err != nil {
		return err
	}
	templates.UseEngine(eng, zap.NewNop())
	return nil
})

// MustBootTemplates boots the template engine once per test binary.
func MustBootTemplates(t interface{ Fatalf(string, ...any) }) {
	if err := bootTemplates(); err != nil {
		t.Fatalf("boot templates: %v", err)
	}
}
