package home

import (
	"net/http"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/setliststudio/internal/app/features/errors"
	"github.com/dalemusser/setliststudio/internal/app/services"
	"github.com/dalemusser/setliststudio/internal/app/system/logging"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"github.com/dalemusser/setliststudio/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) (*Handler, *services.Registry) {
	logger := zap.NewNop()
	reg := services.NewRegistry(db, nil, logging.Levels{}, logger)
	return NewHandler(reg, errorsfeature.NewErrorLogger(logger), logger), reg
}

func TestIndex_Visitor(t *testing.T) {
	testutil.MustBootTemplates(t)
	h, _ := newHandler(testutil.OfflineDB(t))

	req := testutil.WithCSRFToken(testutil.NewRequest(http.MethodGet, "/"))
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `href="/login"`)
}

func TestIndex_SignedIn(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h, reg := newHandler(db)
	user := testutil.Musician()

	// Seed through a separate unit of work.
	seed := testutil.WithScope(t, testutil.NewAuthenticatedRequest(http.MethodGet, "/", user))
	ctx, cancel := testutil.TestContext()
	defer cancel()
	songs, _ := reg.SongsFor(seed)
	setlists, _ := reg.SetlistsFor(seed)
	if _, err := songs.Create(ctx, user.OwnerID(), models.Song{Title: "Blue Bossa", Artist: "Kenny Dorham"}); err != nil {
		t.Fatalf("seed song: %v", err)
	}
	gig := time.Now().UTC().Add(48 * time.Hour)
	if _, err := setlists.Create(ctx, user.OwnerID(), models.Setlist{Name: "Friday at Riley's", PerformanceDate: &gig, IsActive: true}); err != nil {
		t.Fatalf("seed setlist: %v", err)
	}

	req := testutil.WithScope(t, testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/", user))
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Welcome back, "+user.Name)
	rec.AssertContains(t, "Friday at Riley&#39;s")
}

func TestIndex_SignedInWithoutScope(t *testing.T) {
	testutil.MustBootTemplates(t)
	h, _ := newHandler(testutil.OfflineDB(t))

	req := testutil.NewAuthenticatedRequestWithCSRF(http.MethodGet, "/", testutil.Musician())
	rec := testutil.NewRecorder()
	Routes(h).ServeHTTP(rec, req)

	rec.AssertStatus(t, http.StatusInternalServerError)
}
