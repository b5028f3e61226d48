// cmd/setlistctl/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	setliststore "github.com/dalemusser/setliststudio/internal/app/store/setlists"
	"github.com/dalemusser/setliststudio/internal/app/system/inputval"
	"github.com/dalemusser/setliststudio/internal/app/system/library"
	"github.com/dalemusser/setliststudio/internal/app/system/scope"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func ownerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "owner",
		Aliases:  []string{"o"},
		Usage:    "Email of the musician who owns the library",
		Required: true,
	}
}

func importSongsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import-songs",
		Usage:     "Add every song in a TOML library file to a musician's library",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			ownerFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the file without writing anything",
			},
		},
		Action: r.ImportSongs,
	}
}

func listSongsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list-songs",
		Usage: "Print a musician's song library",
		Flags: []cli.Flag{
			ownerFlag(),
			&cli.BoolFlag{
				Name:  "toml",
				Usage: "Print the library as an importable TOML file",
			},
		},
		Action: r.ListSongs,
	}
}

func exportSetlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export-setlist",
		Usage:     "Write a setlist with its songs resolved as TOML",
		ArgsUsage: "SETLIST_ID",
		Flags: []cli.Flag{
			ownerFlag(),
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write to this file instead of stdout",
			},
		},
		Action: r.ExportSetlist,
	}
}

// ImportSongs validates the whole file first and imports nothing when any
// song is invalid.
func (r *Runner) ImportSongs(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("import-songs: FILE is required")
	}

	lib, err := library.Load(path)
	if err != nil {
		return err
	}
	owner, err := r.owner(ctx, cmd.String("owner"))
	if err != nil {
		return err
	}
	songs, err := lib.Models(owner)
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		r.printf("%d songs are valid; nothing imported\n", len(songs))
		return nil
	}

	return r.withScope(func(s *scope.Scope) error {
		svc, err := r.services.Songs(s)
		if err != nil {
			return err
		}
		for i, song := range songs {
			if _, err := svc.Create(ctx, owner, song); err != nil {
				r.logger.Error("import stopped", zap.Int("imported", i), zap.Error(err))
				return fmt.Errorf("song %d (%q): %w", i+1, song.Title, err)
			}
		}
		r.printf("imported %d songs\n", len(songs))
		return nil
	})
}

// ListSongs prints the library sorted by title.
func (r *Runner) ListSongs(ctx context.Context, cmd *cli.Command) error {
	owner, err := r.owner(ctx, cmd.String("owner"))
	if err != nil {
		return err
	}

	return r.withScope(func(s *scope.Scope) error {
		svc, err := r.services.Songs(s)
		if err != nil {
			return err
		}
		songs, err := svc.All(ctx, owner)
		if err != nil {
			return err
		}

		if cmd.Bool("toml") {
			return library.Encode(r.output, library.FromSongs(songs))
		}

		tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TITLE\tARTIST\tKEY\tBPM\tLENGTH")
		for _, song := range songs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				song.Title, song.Artist, song.MusicalKey,
				inputval.FormatOptionalInt(song.BPM), song.DurationLabel())
		}
		return tw.Flush()
	})
}

// ExportSetlist writes one setlist as TOML.
func (r *Runner) ExportSetlist(ctx context.Context, cmd *cli.Command) error {
	id, err := primitive.ObjectIDFromHex(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("export-setlist: %q is not a setlist id", cmd.Args().First())
	}
	owner, err := r.owner(ctx, cmd.String("owner"))
	if err != nil {
		return err
	}

	return r.withScope(func(s *scope.Scope) error {
		svc, err := r.services.Setlists(s)
		if err != nil {
			return err
		}
		view, err := svc.Get(ctx, owner, id)
		if err != nil {
			if errors.Is(err, setliststore.ErrNotFound) {
				return fmt.Errorf("export-setlist: no setlist %s for %s", id.Hex(), cmd.String("owner"))
			}
			return err
		}

		doc := library.FromView(view)
		path := cmd.String("out")
		if path == "" {
			return library.Encode(r.output, doc)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := writeTo(f, func(w io.Writer) error { return library.Encode(w, doc) }); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		r.printf("exported %q (%d items) to %s\n", view.Name, len(view.Entries), path)
		return nil
	})
}

// writeTo runs write against wc and closes it. The first error wins.
func writeTo(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}
