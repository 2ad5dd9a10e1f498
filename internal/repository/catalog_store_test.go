package repository

import (
	"errors"
	"testing"

	"github.com/yourorg/libralend/internal/domain"
)

func newTestCatalog(t *testing.T) *CatalogStore {
	t.Helper()
	store := NewCatalogStore(nil)

	books := []domain.Book{
		{ID: "b1", Title: "Clean Code", Author: "Robert C. Martin", Category: "Software Engineering"},
		{ID: "b2", Title: "Design Patterns", Author: "Erich Gamma", Category: "Software Engineering"},
		{ID: "b3", Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction"},
	}
	for i := range books {
		if err := store.AddBook(&books[i]); err != nil {
			t.Fatalf("add book: %v", err)
		}
	}

	copies := []domain.Copy{
		{ID: "b1c1", BookID: "b1"},
		{ID: "b1c2", BookID: "b1"},
		{ID: "b2c1", BookID: "b2"},
	}
	for i := range copies {
		if err := store.AddCopy(&copies[i]); err != nil {
			t.Fatalf("add copy: %v", err)
		}
	}
	return store
}

func TestSearchBooksFilters(t *testing.T) {
	store := newTestCatalog(t)

	// No filters returns everything in insertion order
	all, err := store.SearchBooks(domain.SearchFilter{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 books, got %d", len(all))
	}
	if all[0].ID != "b1" || all[2].ID != "b3" {
		t.Fatalf("expected insertion order, got %s..%s", all[0].ID, all[2].ID)
	}

	// Query matches title, author or category, case-insensitive
	hits, _ := store.SearchBooks(domain.SearchFilter{Query: "  CLEAN "})
	if len(hits) != 1 || hits[0].ID != "b1" {
		t.Fatalf("query filter failed: %+v", hits)
	}
	hits, _ = store.SearchBooks(domain.SearchFilter{Query: "gamma"})
	if len(hits) != 1 || hits[0].ID != "b2" {
		t.Fatalf("query on author failed: %+v", hits)
	}

	// Author and category filters AND together
	hits, _ = store.SearchBooks(domain.SearchFilter{Author: "herbert", Category: "science"})
	if len(hits) != 1 || hits[0].ID != "b3" {
		t.Fatalf("author+category filter failed: %+v", hits)
	}
	hits, _ = store.SearchBooks(domain.SearchFilter{Author: "herbert", Category: "engineering"})
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}

func TestSearchAvailableOnly(t *testing.T) {
	store := newTestCatalog(t)

	// b3 has no copies at all, b2 loses its only copy
	if err := store.SetCopyStatus("b2c1", domain.CopyLoaned); err != nil {
		t.Fatalf("set status: %v", err)
	}

	hits, _ := store.SearchBooks(domain.SearchFilter{AvailableOnly: true})
	if len(hits) != 1 || hits[0].ID != "b1" {
		t.Fatalf("availableOnly filter failed: %+v", hits)
	}
}

func TestDerivedAvailability(t *testing.T) {
	store := newTestCatalog(t)

	book, err := store.FindBook("b1")
	if err != nil {
		t.Fatalf("find book: %v", err)
	}
	if book.TotalCopies != 2 || book.AvailableCopies != 2 {
		t.Fatalf("expected 2/2, got %d/%d", book.AvailableCopies, book.TotalCopies)
	}

	store.SetCopyStatus("b1c1", domain.CopyLoaned)
	book, _ = store.FindBook("b1")
	if book.TotalCopies != 2 || book.AvailableCopies != 1 {
		t.Fatalf("expected 1/2 after loan, got %d/%d", book.AvailableCopies, book.TotalCopies)
	}

	store.SetCopyStatus("b1c1", domain.CopyAvailable)
	book, _ = store.FindBook("b1")
	if book.AvailableCopies != 2 {
		t.Fatalf("expected 2 available after return, got %d", book.AvailableCopies)
	}
}

func TestHasAvailableCopy(t *testing.T) {
	store := newTestCatalog(t)

	ok, err := store.HasAvailableCopy("b2")
	if err != nil || !ok {
		t.Fatalf("expected available, got ok=%v err=%v", ok, err)
	}

	store.SetCopyStatus("b2c1", domain.CopyLoaned)
	ok, _ = store.HasAvailableCopy("b2")
	if ok {
		t.Fatalf("expected unavailable after loan")
	}

	// b3 exists but has no copies
	ok, err = store.HasAvailableCopy("b3")
	if err != nil || ok {
		t.Fatalf("expected no copies, got ok=%v err=%v", ok, err)
	}

	if _, err := store.HasAvailableCopy("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindCopyReturnsSnapshot(t *testing.T) {
	store := newTestCatalog(t)

	copyRec, err := store.FindCopy("b1c1")
	if err != nil {
		t.Fatalf("find copy: %v", err)
	}

	// Mutating the returned value must not touch store state
	copyRec.Status = domain.CopyLoaned
	again, _ := store.FindCopy("b1c1")
	if again.Status != domain.CopyAvailable {
		t.Fatalf("store state leaked through returned copy")
	}
}

func TestSetCopyStatusUnknownCopy(t *testing.T) {
	store := newTestCatalog(t)
	if err := store.SetCopyStatus("nope", domain.CopyLoaned); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBooksWithAvailableCopies(t *testing.T) {
	store := newTestCatalog(t)

	ids := store.BooksWithAvailableCopies()
	if len(ids) != 2 {
		t.Fatalf("expected 2 books with availability, got %v", ids)
	}

	store.SetCopyStatus("b1c1", domain.CopyLoaned)
	store.SetCopyStatus("b1c2", domain.CopyLoaned)
	store.SetCopyStatus("b2c1", domain.CopyLoaned)
	if ids := store.BooksWithAvailableCopies(); len(ids) != 0 {
		t.Fatalf("expected none, got %v", ids)
	}
}
