package record_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/pkg/record"
)

func TestRowAttributes(t *testing.T) {
	row := record.NewRow("Author", "id", map[string]any{"id": int64(7), "name": "Alice"})
	if row.Model() != "Author" || row.Key() != "id" || row.ID() != int64(7) {
		t.Fatalf("unexpected row: %v", row)
	}
	if v, ok := row.Attr("name"); !ok || v != "Alice" {
		t.Fatalf("name: %v %v", v, ok)
	}
	if _, ok := row.Attr("missing"); ok {
		t.Fatalf("missing attribute must report false")
	}

	values := row.Values()
	values["name"] = "Mallory"
	if v, _ := row.Attr("name"); v != "Alice" {
		t.Fatalf("Values must return a copy")
	}
	if got := row.String(); got != "Author #7" {
		t.Fatalf("string: %q", got)
	}
	if got := record.New("Author", "id").String(); got != "New Author" {
		t.Fatalf("unsaved string: %q", got)
	}
}

func TestRelatedLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	titles := []*record.Row{record.NewRow("Title", "id", map[string]any{"id": int64(1)})}
	row := record.NewRow("Book", "id", map[string]any{"id": int64(1)}).
		WithLoader(func(_ context.Context, row *record.Row, name string) (any, error) {
			calls.Add(1)
			if name != "titles" {
				return nil, errors.New("unknown association")
			}
			return titles, nil
		})

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := row.Related(context.Background(), "titles"); err != nil {
				t.Errorf("related: %v", err)
			}
		}()
	}
	wg.Wait()

	v, err := row.Related(context.Background(), "titles")
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if got := len(record.List(v)); got != 1 {
		t.Fatalf("expected one title, got %d", got)
	}
	if calls.Load() == 0 || calls.Load() > 4 {
		t.Fatalf("unexpected loader calls: %d", calls.Load())
	}
	before := calls.Load()
	if _, err := row.Related(context.Background(), "titles"); err != nil || calls.Load() != before {
		t.Fatalf("cached value must not reload")
	}
	if _, err := row.Related(context.Background(), "authors"); err == nil {
		t.Fatalf("loader errors must surface")
	}
}

func TestRelatedWithoutLoader(t *testing.T) {
	draft := record.New("Book", "id")
	if v, err := draft.Related(context.Background(), "titles"); v != nil || err != nil {
		t.Fatalf("unsaved rows have no associations, got %v %v", v, err)
	}
	saved := record.NewRow("Book", "id", map[string]any{"id": int64(1)})
	if _, err := saved.Related(context.Background(), "titles"); err == nil {
		t.Fatalf("a saved row without a loader must fail")
	}
	saved.SetRelated("titles", nil)
	if v, err := saved.Related(context.Background(), "titles"); v != nil || err != nil {
		t.Fatalf("cached nil must be returned: %v %v", v, err)
	}
}

func TestIDStrings(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{[]byte("42"), "42"},
		{int64(9), "9"},
		{3, "3"},
		{2.5, "2.5"},
	}
	for _, tc := range cases {
		if got := record.IDString(tc.in); got != tc.want {
			t.Fatalf("IDString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if record.IDOf(nil) != "" {
		t.Fatalf("nil record has no id")
	}
}

func TestList(t *testing.T) {
	a := record.NewRow("Author", "id", map[string]any{"id": int64(1)})
	b := record.NewRow("Author", "id", map[string]any{"id": int64(2)})

	ids := func(records []record.Record) []string {
		out := make([]string, 0, len(records))
		for _, rec := range records {
			out = append(out, record.IDOf(rec))
		}
		return out
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids(record.List([]*record.Row{a, b}))); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2"}, ids(record.List(record.Record(b)))); diff != "" {
		t.Fatalf("single mismatch (-want +got):\n%s", diff)
	}
	if record.List(nil) != nil || record.List("nope") != nil {
		t.Fatalf("unknown values list nothing")
	}
}
