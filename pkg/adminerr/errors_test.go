package adminerr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatusCode_MapsKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundError{Resource: "record", Name: "7"}, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", NotFoundError{Resource: "field"}), http.StatusNotFound},
		{"configuration", ConfigurationError{Subject: "Book", Msg: "already registered"}, http.StatusUnprocessableEntity},
		{"validation", ValidationError{Form: []string{"nope"}}, http.StatusUnprocessableEntity},
		{"action", ActionError{Action: "publish"}, http.StatusUnprocessableEntity},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusCode(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestPredicates(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ConfigurationError{Msg: "x"})
	if !IsConfiguration(err) || IsNotFound(err) {
		t.Fatalf("unexpected predicate results for %v", err)
	}
	if !IsStaleFetch(fmt.Errorf("fetch 3: %w", ErrStaleFetch)) {
		t.Fatalf("expected stale fetch to be detected")
	}
	if !IsActionFailure(ActionError{Action: "a"}) {
		t.Fatalf("expected action failure")
	}
}

func TestNewValidation_MapsParameterPaths(t *testing.T) {
	got := NewValidation([]string{"name", "books"}, map[string][]string{
		"author[name]":    {" can't be blank ", "can't be blank"},
		"/data/books":     {"is invalid"},
		"author[unknown]": {"unexpected"},
		"base":            {"  "},
	})

	want := ValidationError{
		Fields: map[string][]string{
			"name":  {"can't be blank"},
			"books": {"is invalid"},
		},
		Form: []string{"unexpected"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}
	if !IsValidation(got) {
		t.Fatalf("expected validation kind")
	}
}

func TestValidationError_Add(t *testing.T) {
	var v ValidationError
	v.Add("name", "is required")
	v.Add("name", "is required")
	v.Add("title", " ")

	if diff := cmp.Diff([]string{"is required"}, v.Messages("name")); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if _, ok := v.Fields["title"]; ok {
		t.Fatalf("blank messages should not be recorded")
	}
	if v.Empty() {
		t.Fatalf("expected non-empty validation error")
	}
}
