// cmd/setlistctl/main.go
package main

import (
	"context"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newRootCommand(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatal("setlistctl failed", zap.Error(err))
	}
}

func newRootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setlistctl",
		Usage: "Import song libraries and export setlists for Setlist Studio",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mongo-uri",
				Usage:   "MongoDB connection URI",
				Value:   "mongodb://localhost:27017",
				Sources: cli.EnvVars("SETLISTSTUDIO_MONGO_URI"),
			},
			&cli.StringFlag{
				Name:    "database",
				Usage:   "MongoDB database name",
				Value:   "setliststudio",
				Sources: cli.EnvVars("SETLISTSTUDIO_MONGO_DATABASE"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall timeout for the command",
				Value: time.Minute,
			},
		},
		Before:   r.Connect,
		After:    r.Close,
		Commands: r.register(),
	}
}
