// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's name, ObjectID and a found flag.
// A missing user or a malformed ID yields "", NilObjectID, false, so ok=true
// always means a usable owner ID.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}

// OwnerID returns the ID every song and setlist query is scoped to.
func OwnerID(r *http.Request) (primitive.ObjectID, bool) {
	_, id, ok := UserCtx(r)
	return id, ok
}

// IsLoggedIn reports whether there is a user in the request context.
func IsLoggedIn(r *http.Request) bool {
	_, ok := auth.CurrentUser(r)
	return ok
}

// Owns reports whether the signed-in user owns a record.
func Owns(r *http.Request, owner primitive.ObjectID) bool {
	id, ok := OwnerID(r)
	return ok && !owner.IsZero() && id == owner
}

// RequireOwner wraps handlers that need an owner ID. Requests without one
// get 401; it sits behind auth.RequireSignedIn so that only happens for
// malformed sessions.
func RequireOwner(next func(w http.ResponseWriter, r *http.Request, owner primitive.ObjectID)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := OwnerID(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r, owner)
	}
}
