// cmd/setliststudio/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/setliststudio/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	// Hook failures (database init included) are logged and exit inside Run;
	// only config and logger setup errors come back here.
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintln(os.Stderr, "setliststudio:", err)
		os.Exit(1)
	}
}
