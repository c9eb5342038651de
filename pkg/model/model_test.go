package model

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize_DerivesAssociationKeys(t *testing.T) {
	book := Define("Book", "id", "original_title").With(
		HasMany("titles", ""),
		HasAndBelongsToMany("authors", "Author"),
	)

	got, err := book.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := []Association{
		{Name: "titles", Kind: HasManyKind, Cardinality: Many, Target: "Title", ForeignKey: "book_id"},
		{
			Name:                  "authors",
			Kind:                  HasAndBelongsToManyKind,
			Cardinality:           Many,
			Target:                "Author",
			ForeignKey:            "book_id",
			JoinTable:             "authors_books",
			AssociationForeignKey: "author_id",
		},
	}
	if diff := cmp.Diff(want, got.Associations); diff != "" {
		t.Fatalf("associations mismatch (-want +got):\n%s", diff)
	}
	if got.TableName() != "books" || got.ParamKey() != "book" || got.PluralKey() != "books" {
		t.Fatalf("unexpected naming: %s %s %s", got.TableName(), got.ParamKey(), got.PluralKey())
	}
}

func TestNormalize_BelongsToAndPolymorphic(t *testing.T) {
	comment := Define("Comment", "id", "body", "subject_id", "subject_type", "book_id").With(
		BelongsTo("book", "").AsOptional(),
		BelongsTo("subject", "").AsPolymorphic(""),
	)
	got, err := comment.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	book, _ := got.Association("book")
	if book.Target != "Book" || book.ForeignKey != "book_id" || !book.Optional || book.Many() {
		t.Fatalf("unexpected belongsTo descriptor: %+v", book)
	}
	subject, _ := got.Association("subject")
	if !subject.Polymorphic || subject.Target != "" || subject.TypeKey != "subject_type" {
		t.Fatalf("unexpected polymorphic descriptor: %+v", subject)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := map[string]Model{
		"missing columns":      {ID: "Author"},
		"missing primary key":  Define("Author", "name"),
		"unknown kind":         Define("Author", "id").With(Association{Name: "x", Kind: "hasOne"}),
		"polymorphic has many": Define("Author", "id").With(HasMany("books", "Book").AsPolymorphic("")),
		"duplicate":            Define("Author", "id").With(HasMany("books", "Book"), HasMany("books", "Book")),
		"cardinality conflict": Define("Author", "id").With(Association{Name: "books", Kind: HasManyKind, Cardinality: One}),
	}
	for name, m := range cases {
		if _, err := m.Normalize(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCatalog_DuplicateIsError(t *testing.T) {
	_, err := NewCatalog(Define("Author", "id"), Define("Author", "id", "name"))
	if err == nil || !strings.Contains(err.Error(), "already defined") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLoadFS_ReadsYAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"models/library.yaml": {Data: []byte(`
models:
  Author:
    columns: [id, name, born_on]
    associations:
      - name: books
        kind: habtm
        target: Book
  Book:
    table: books
    columns: [id, original_title]
`)},
		"models/titles.json": {Data: []byte(`{"models":{"Title":{"columns":["id","title","book_id"],"associations":[{"name":"book","kind":"belongs_to"}]}}}`)},
		"README.md":          {Data: []byte("ignored")},
	}

	catalog, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"Author", "Book", "Title"}, catalog.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	author := catalog.MustModel("Author")
	books, ok := author.Association("books")
	if !ok || books.JoinTable != "authors_books" || books.ForeignKey != "author_id" || books.AssociationForeignKey != "book_id" {
		t.Fatalf("unexpected habtm descriptor: %+v", books)
	}
	title := catalog.MustModel("Title")
	if assoc, _ := title.Association("book"); assoc.Kind != BelongsToKind || assoc.Target != "Book" {
		t.Fatalf("unexpected belongsTo descriptor: %+v", assoc)
	}
}

func TestLoadFS_DuplicateAcrossFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("models:\n  Author:\n    columns: [id]\n")},
		"b.yml":  {Data: []byte("models:\n  Author:\n    columns: [id]\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate model error")
	}
}
