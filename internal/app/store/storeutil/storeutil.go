// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"regexp"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPageSize is used when a caller passes a non-positive limit.
const DefaultPageSize = 25

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}

// FoldedContains builds a substring match against a folded (_ci) field.
// The query is folded the same way and regex metacharacters are escaped.
func FoldedContains(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(text.Fold(q))}
}

// AnyOf ORs the same condition over several fields.
func AnyOf(cond any, fields ...string) bson.A {
	out := make(bson.A, 0, len(fields))
	for _, f := range fields {
		out = append(out, bson.M{f: cond})
	}
	return out
}
