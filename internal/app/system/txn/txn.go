// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and plainly when it does not (a standalone
// server has no transactions).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Func holds the writes to run. ctx is a session context inside a
// transaction and the caller's context otherwise.
type Func func(ctx context.Context) error

// Runner runs Funcs against one client.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New returns a Runner. A nil client runs every Func without a transaction.
func New(client *mongo.Client, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{client: client, log: log}
}

// Run executes fn atomically when possible.
func (r *Runner) Run(ctx context.Context, fn Func) error {
	if r == nil || r.client == nil {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		r.log.Warn("no session available; writing without a transaction", zap.Error(err))
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.log.Debug("transactions unsupported; writing without a transaction", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions. Codes: 20 IllegalOperation (standalone server), 263
// OperationNotSupportedInTransaction.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 20 || cmdErr.Code == 263) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "transaction numbers are only allowed on a replica set") ||
		strings.Contains(msg, "transactions are not supported")
}
