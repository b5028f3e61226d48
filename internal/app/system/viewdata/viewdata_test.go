package viewdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/setliststudio/internal/app/system/auth"
	"github.com/dalemusser/setliststudio/internal/app/system/culture"
	"github.com/dalemusser/setliststudio/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNew_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/songs?page=2", nil)
	vm := New(req)

	if vm.IsLoggedIn {
		t.Error("IsLoggedIn should be false")
	}
	if vm.UserID != "" || vm.UserName != "" || vm.UserEmail != "" {
		t.Errorf("expected empty user fields, got %+v", vm)
	}
	if vm.SiteName != models.DefaultSiteName {
		t.Errorf("SiteName = %q, want %q", vm.SiteName, models.DefaultSiteName)
	}
	if vm.FooterHTML == "" {
		t.Error("FooterHTML should default")
	}
}

func TestNew_SignedIn(t *testing.T) {
	id := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id.Hex(), Name: "Test Musician", Email: "test@example.com"})

	vm := New(req)
	if !vm.IsLoggedIn {
		t.Fatal("IsLoggedIn should be true")
	}
	if vm.UserID != id.Hex() {
		t.Errorf("UserID = %q, want %q", vm.UserID, id.Hex())
	}
	if vm.UserName != "Test Musician" || vm.UserEmail != "test@example.com" {
		t.Errorf("unexpected user fields: %+v", vm)
	}
}

func TestNewBaseVM_TitleAndBack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/songs/new", nil)
	vm := NewBaseVM(req, "New Song", "/songs")
	if vm.Title != "New Song" {
		t.Errorf("Title = %q", vm.Title)
	}
	if vm.BackURL == "" {
		t.Error("BackURL should fall back to the default")
	}
}

func TestNew_CultureOptions(t *testing.T) {
	n, err := culture.New([]string{"en-US", "es"}, "en-US")
	if err != nil {
		t.Fatalf("culture.New: %v", err)
	}
	Init(n)
	defer Init(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	vm := New(req)
	if len(vm.CultureOptions) != 2 {
		t.Errorf("len(CultureOptions) = %d, want 2", len(vm.CultureOptions))
	}
	if vm.Culture != "en" {
		t.Errorf("Culture without middleware = %q, want en", vm.Culture)
	}
}

func TestNewPager(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/songs?q=blue&page=2", nil)

	p := NewPager(req, 2, 25, 60)
	if p.Pages != 3 || !p.HasPrev || !p.HasNext {
		t.Fatalf("unexpected pager: %+v", p)
	}
	if p.PrevURL != "/songs?page=1&q=blue" {
		t.Errorf("PrevURL = %q", p.PrevURL)
	}
	if p.NextURL != "/songs?page=3&q=blue" {
		t.Errorf("NextURL = %q", p.NextURL)
	}

	single := NewPager(req, 1, 25, 10)
	if single.Pages != 1 || single.HasPrev || single.HasNext {
		t.Errorf("single page pager: %+v", single)
	}

	empty := NewPager(req, 0, 25, 0)
	if empty.Pages != 0 || empty.Page != 1 || empty.HasNext {
		t.Errorf("empty pager: %+v", empty)
	}
}
