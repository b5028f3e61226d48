// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the application's collections (if missing) and attaches
// JSON-Schema validators. Servers without collMod support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	existing, listErr := listCollections(ctx, db)

	var problems []string
	ensure := func(coll string, schema bson.M) {
		if listErr != nil || !existing[coll] {
			if err := createCollection(ctx, db, coll, logger); err != nil {
				problems = append(problems, coll+": "+err.Error())
				return
			}
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("users", usersSchema())
	ensure("identities", identitiesSchema())
	ensure("oauth_states", nil)
	ensure("songs", songsSchema())
	ensure("setlists", setlistsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func listCollections(ctx context.Context, db *mongo.Database) (map[string]bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

func createCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

/* ------------------------- error helpers ------------------------- */

func commandErrorMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrorMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrorMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrorMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func optionalInt(min, max int) bson.M {
	return bson.M{"bsonType": bson.A{"int", "long", "null"}, "minimum": min, "maximum": max}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "status"},
			"properties": bson.M{
				"full_name":    nonBlank,
				"full_name_ci": bson.M{"bsonType": "string"},
				"email":        bson.M{"bsonType": bson.A{"string", "null"}},
				"email_ci":     bson.M{"bsonType": bson.A{"string", "null"}},
				"status":       bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func identitiesSchema() bson.M {
	providers := bson.A{}
	for _, p := range models.AllAuthProviders {
		providers = append(providers, p.Value)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "provider", "subject"},
			"properties": bson.M{
				"user_id":  bson.M{"bsonType": "objectId"},
				"provider": bson.M{"enum": providers},
				"subject":  nonBlank,
			},
		},
	}
}

func songsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "title", "artist"},
			"properties": bson.M{
				"owner_id":         bson.M{"bsonType": "objectId"},
				"title":            nonBlank,
				"artist":           nonBlank,
				"bpm":              optionalInt(models.MinBPM, models.MaxBPM),
				"duration_seconds": optionalInt(1, models.MaxDurationSecond),
				"difficulty":       optionalInt(models.MinDifficulty, models.MaxDifficulty),
			},
		},
	}
}

func setlistsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"owner_id", "name"},
			"properties": bson.M{
				"owner_id": bson.M{"bsonType": "objectId"},
				"name":     nonBlank,
				"items": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"_id", "song_id"},
						"properties": bson.M{
							"song_id":    bson.M{"bsonType": "objectId"},
							"custom_bpm": optionalInt(models.MinBPM, models.MaxBPM),
						},
					},
				},
			},
		},
	}
}
