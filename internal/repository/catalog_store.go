package repository

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yourorg/libralend/internal/domain"
)

// CatalogStore implements domain.CatalogRepository with in-process state.
// Books keep catalog insertion order; availability counts are aggregated
// from copy records on every read instead of being cached on the book.
type CatalogStore struct {
	mu           sync.RWMutex
	books        []*domain.Book
	booksByID    map[string]*domain.Book
	copies       map[string]*domain.Copy
	copiesByBook map[string][]string
	logger       *slog.Logger
}

// NewCatalogStore creates an empty catalog store
func NewCatalogStore(logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{
		booksByID:    map[string]*domain.Book{},
		copies:       map[string]*domain.Copy{},
		copiesByBook: map[string][]string{},
		logger:       logger,
	}
}

// AddBook registers a book in the catalog. Duplicate IDs are a conflict.
func (s *CatalogStore) AddBook(book *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.booksByID[book.ID]; exists {
		return fmt.Errorf("book %s already in catalog: %w", book.ID, domain.ErrConflict)
	}

	b := *book
	s.books = append(s.books, &b)
	s.booksByID[b.ID] = &b
	return nil
}

// AddCopy registers a physical copy for an existing book
func (s *CatalogStore) AddCopy(copy *domain.Copy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.booksByID[copy.BookID]; !exists {
		return fmt.Errorf("book %s: %w", copy.BookID, domain.ErrNotFound)
	}
	if _, exists := s.copies[copy.ID]; exists {
		return fmt.Errorf("copy %s already in catalog: %w", copy.ID, domain.ErrConflict)
	}

	c := *copy
	if c.Status == "" {
		c.Status = domain.CopyAvailable
	}
	s.copies[c.ID] = &c
	s.copiesByBook[c.BookID] = append(s.copiesByBook[c.BookID], c.ID)
	return nil
}

// FindBook returns a book with its derived copy counts
func (s *CatalogStore) FindBook(id string) (*domain.BookAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, exists := s.booksByID[id]
	if !exists {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	return s.withAvailability(book), nil
}

// SearchBooks filters the catalog. All filters are case-insensitive trimmed
// substring matches that AND together; results keep insertion order.
func (s *CatalogStore) SearchBooks(filter domain.SearchFilter) ([]*domain.BookAvailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	author := strings.ToLower(strings.TrimSpace(filter.Author))
	category := strings.ToLower(strings.TrimSpace(filter.Category))

	results := make([]*domain.BookAvailability, 0)
	for _, book := range s.books {
		title := strings.ToLower(book.Title)
		bookAuthor := strings.ToLower(book.Author)
		bookCategory := strings.ToLower(book.Category)

		if q != "" && !strings.Contains(title, q) && !strings.Contains(bookAuthor, q) && !strings.Contains(bookCategory, q) {
			continue
		}
		if author != "" && !strings.Contains(bookAuthor, author) {
			continue
		}
		if category != "" && !strings.Contains(bookCategory, category) {
			continue
		}

		entry := s.withAvailability(book)
		if filter.AvailableOnly && entry.AvailableCopies == 0 {
			continue
		}
		results = append(results, entry)
	}
	return results, nil
}

// FindCopy returns a snapshot of a copy record
func (s *CatalogStore) FindCopy(id string) (*domain.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copyRec, exists := s.copies[id]
	if !exists {
		return nil, fmt.Errorf("copy %s: %w", id, domain.ErrNotFound)
	}
	c := *copyRec
	return &c, nil
}

// SetCopyStatus writes a copy status. The transition itself is not
// validated here; the lending service checks preconditions first.
func (s *CatalogStore) SetCopyStatus(copyID string, status domain.CopyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyRec, exists := s.copies[copyID]
	if !exists {
		return fmt.Errorf("copy %s: %w", copyID, domain.ErrNotFound)
	}
	copyRec.Status = status
	s.logger.Debug("copy status updated",
		slog.String("copy_id", copyID),
		slog.String("status", string(status)),
	)
	return nil
}

// HasAvailableCopy reports whether any copy of the book is AVAILABLE
func (s *CatalogStore) HasAvailableCopy(bookID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.booksByID[bookID]; !exists {
		return false, fmt.Errorf("book %s: %w", bookID, domain.ErrNotFound)
	}
	for _, copyID := range s.copiesByBook[bookID] {
		if s.copies[copyID].Status == domain.CopyAvailable {
			return true, nil
		}
	}
	return false, nil
}

// BooksWithAvailableCopies lists IDs of books that currently have at least
// one AVAILABLE copy. Used by the reservation promotion sweep.
func (s *CatalogStore) BooksWithAvailableCopies() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for _, book := range s.books {
		for _, copyID := range s.copiesByBook[book.ID] {
			if s.copies[copyID].Status == domain.CopyAvailable {
				ids = append(ids, book.ID)
				break
			}
		}
	}
	return ids
}

// withAvailability must be called with the lock held
func (s *CatalogStore) withAvailability(book *domain.Book) *domain.BookAvailability {
	entry := &domain.BookAvailability{Book: *book}
	for _, copyID := range s.copiesByBook[book.ID] {
		entry.TotalCopies++
		if s.copies[copyID].Status == domain.CopyAvailable {
			entry.AvailableCopies++
		}
	}
	return entry
}
