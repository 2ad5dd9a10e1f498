package domain

// CopyStatus is the physical state of a single copy
type CopyStatus string

const (
	CopyAvailable CopyStatus = "AVAILABLE"
	CopyLoaned    CopyStatus = "LOANED"
)

// Book holds immutable catalog metadata. Copy counts are never stored on
// the book; they are derived from copy records at read time so the counter
// cannot drift from the copies.
type Book struct {
	ID            string
	Title         string
	Author        string
	Category      string
	ISBN          string
	Description   string
	PublishedYear int
}

// Copy represents one physical unit of a book. Copies are created at
// catalog seeding time and never deleted; only their status changes.
type Copy struct {
	ID     string
	BookID string
	Status CopyStatus
}

// BookAvailability pairs a book with its derived copy counts
type BookAvailability struct {
	Book
	TotalCopies     int
	AvailableCopies int
}

// SearchFilter captures the catalog search parameters. Empty fields pass
// everything through; non-empty filters AND together.
type SearchFilter struct {
	Query         string // substring match on title, author or category
	Author        string
	Category      string
	AvailableOnly bool
}

// CatalogRepository defines data access for books and copies
type CatalogRepository interface {
	FindBook(id string) (*BookAvailability, error)
	SearchBooks(filter SearchFilter) ([]*BookAvailability, error)
	FindCopy(id string) (*Copy, error)
	// SetCopyStatus performs the raw status write. It does not validate the
	// transition; that is the lending service's job.
	SetCopyStatus(copyID string, status CopyStatus) error
	HasAvailableCopy(bookID string) (bool, error)
}
