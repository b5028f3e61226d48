// cmd/setlistctl/runner.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/setliststudio/internal/app/services"
	userstore "github.com/dalemusser/setliststudio/internal/app/store/users"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/app/system/scope"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrNoOwner is returned when --owner names no user.
var ErrNoOwner = errors.New("no user with that email")

// Runner holds the dependencies shared by every command.
type Runner struct {
	client   *mongo.Client
	db       *mongo.Database
	services *services.Registry
	users    *userstore.Store
	logger   *zap.Logger
	output   io.Writer
	cancel   context.CancelFunc
}

// RunnerOpts configures a Runner. DB is set by tests; the CLI connects in
// Connect instead.
type RunnerOpts struct {
	DB     *mongo.Database
	Logger *zap.Logger
	Output io.Writer
}

// NewRunner creates a Runner.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	r := &Runner{logger: opts.Logger, output: opts.Output}
	if opts.DB != nil {
		r.use(opts.DB)
	}
	return r
}

func (r *Runner) use(db *mongo.Database) {
	r.db = db
	r.services = services.NewRegistry(db, nil, logging.Levels{}, r.logger)
	r.users = userstore.New(db)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range []func(*Runner) *cli.Command{
		importSongsCommand, listSongsCommand, exportSetlistCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// Connect opens the database connection before any command runs.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	ctx, r.cancel = context.WithTimeout(ctx, cmd.Duration("timeout"))
	if r.db != nil {
		return ctx, nil
	}

	uri, name := cmd.String("mongo-uri"), cmd.String("database")
	if err := wafflemongo.ValidateURI(uri); err != nil {
		return ctx, fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	client, err := wafflemongo.ConnectWithPool(ctx, uri, name, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return ctx, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	r.client = client
	r.use(client.Database(name))
	r.logger.Debug("connected to MongoDB", zap.String("database", name))
	return ctx, nil
}

// Close disconnects after the command finishes.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.cancel != nil {
		defer r.cancel()
	}
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(context.Background())
}

// owner resolves --owner to a user ID.
func (r *Runner) owner(ctx context.Context, email string) (primitive.ObjectID, error) {
	u, err := r.users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", ErrNoOwner, email)
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return u.ID, nil
}

// withScope runs fn inside one unit of work, as a request would.
func (r *Runner) withScope(fn func(s *scope.Scope) error) error {
	s := scope.New()
	defer s.Close()
	return fn(s)
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}
