// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionSet pairs a collection with the indexes it must carry.
type collectionSet struct {
	name   string
	models []mongo.IndexModel
}

func desired() []collectionSet {
	return []collectionSet{
		{name: "users", models: usersIndexes()},
		{name: "identities", models: identitiesIndexes()},
		{name: "oauth_states", models: oauthStatesIndexes()},
		{name: "songs", models: songsIndexes()},
		{name: "setlists", models: setlistsIndexes()},
	}
}

/*
EnsureAll is called during schema setup. Each collection set is idempotent.
Errors are aggregated so every problem is visible in one log line.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	return EnsureAllWithLogger(ctx, db, zap.L())
}

// EnsureAllWithLogger is EnsureAll with an explicit logger.
func EnsureAllWithLogger(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.name), set.models, logger); err != nil {
			problems = append(problems, set.name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// CollectionNames lists the collections the application owns.
func CollectionNames() []string {
	sets := desired()
	names := make([]string, 0, len(sets))
	for _, s := range sets {
		names = append(names, s.name)
	}
	return names
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs []string
	existing := listExisting(ctx, coll, logger)

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if boolValue(unique) == boolValue(ex.Unique) {
				logger.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}

			// Same keys, different uniqueness: drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && boolValue(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			logger.Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		logger.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolValue(unique)),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                             */
/* -------------------------------------------------------------------------- */

func usersIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_emailci"),
		},
	}
}

func identitiesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// One identity per external account.
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_identities_provider_subject"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_identities_user"),
		},
	}
}

func oauthStatesIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauthstates_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_oauthstates_expires_ttl"),
		},
	}
}

func songsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_songs_owner_titleci_id"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "artist_ci", Value: 1}},
			Options: options.Index().SetName("idx_songs_owner_artistci"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "genre", Value: 1}},
			Options: options.Index().SetName("idx_songs_owner_genre"),
		},
	}
}

func setlistsIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_setlists_owner_nameci_id"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "performance_date", Value: -1}},
			Options: options.Index().SetName("idx_setlists_owner_perfdate"),
		},
		// Cascade lookups when a song is deleted.
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "items.song_id", Value: 1}},
			Options: options.Index().SetName("idx_setlists_owner_itemsong"),
		},
	}
}
