package txn

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/setliststudio/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"illegal operation", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"wrapped", errors.Join(errors.New("delete song"), mongo.CommandError{Code: 263}), true},
		{"message only", errors.New("Transaction numbers are only allowed on a replica set member or mongos"), true},
		{"duplicate key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRun_NilClientRunsPlainly(t *testing.T) {
	calls := 0
	err := New(nil, nil).Run(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRun_ReturnsFuncError(t *testing.T) {
	boom := errors.New("boom")
	err := New(nil, nil).Run(context.Background(), func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRun_WritesOnAnyDeployment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := New(db.Client(), nil).Run(ctx, func(ctx context.Context) error {
		_, err := db.Collection("txn_writes").InsertOne(ctx, bson.M{"n": 1})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	n, err := db.Collection("txn_writes").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}
}
