package picker

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

func TestMountPaths(t *testing.T) {
	cases := []struct {
		base     string
		fns      []OptionFn
		single   string
		multiple string
	}{
		{"", nil, "/belongs_to/associated_records", "/has_many/associated_records"},
		{"/admin/", nil, "/admin/belongs_to/associated_records", "/admin/has_many/associated_records"},
		{"admin", []OptionFn{WithRoutePaths("one", "/many")}, "/admin/one", "/admin/many"},
	}
	for _, tc := range cases {
		single, multiple := MountPaths(tc.base, tc.fns...)
		if single != tc.single || multiple != tc.multiple {
			t.Fatalf("MountPaths(%q): got %q %q", tc.base, single, multiple)
		}
	}
}

func TestRegisterRoutes(t *testing.T) {
	if _, err := RegisterRoutes(nil, "/admin"); err == nil {
		t.Fatalf("expected error for missing mux")
	}
	if _, err := RegisterRoutes(http.NewServeMux(), "/admin", WithRoutePaths("/same", "/same")); err == nil {
		t.Fatalf("expected error for colliding routes")
	}

	reg := newRegistry(t)
	router := chi.NewRouter()
	patterns, err := New(WithRegistry(reg)).RegisterRoutes(router, "/admin")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	want := []string{"/admin/belongs_to/associated_records", "/admin/has_many/associated_records"}
	if diff := cmp.Diff(want, patterns); diff != "" {
		t.Fatalf("patterns mismatch (-want +got):\n%s", diff)
	}

	for _, target := range []string{
		"/admin/belongs_to/associated_records?model=Title&field=book&format=json",
		"/admin/has_many/associated_records?model=Author&field=books&format=json",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestComponentNilReceiver(t *testing.T) {
	var c *Component
	if got := c.Options().SingleRoutePath; got != "/belongs_to/associated_records" {
		t.Fatalf("expected default options, got %q", got)
	}
}
