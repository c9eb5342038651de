package testsupport

import (
	"bytes"
	"context"
	stdsql "database/sql"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	_ "modernc.org/sqlite"
)

var databaseSeq atomic.Int64

// OpenSQLite opens a private in-memory SQLite database, runs statements, and
// closes the database when the test ends.
func OpenSQLite(t *testing.T, statements ...string) *stdsql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, databaseSeq.Add(1))
	db, err := stdsql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	MustExec(t, db, statements...)
	return db
}

// MustExec runs every statement, failing the test on the first error.
func MustExec(t *testing.T, db *stdsql.DB, statements ...string) {
	t.Helper()
	for _, statement := range statements {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("exec %q: %v", statement, err)
		}
	}
}

// Context returns a context cancelled when the test ends.
func Context(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

// CaptureTemplateOutput executes a render function that writes to an
// io.Writer, returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
