package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/libralend/internal/domain"
)

// BookResponse is the wire shape of a catalog entry
type BookResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	Category        string `json:"category"`
	ISBN            string `json:"isbn"`
	Description     string `json:"description,omitempty"`
	PublishedYear   int    `json:"publishedYear,omitempty"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
}

// BooksHandler serves catalog search and lookup
type BooksHandler struct {
	catalog domain.CatalogRepository
	logger  *slog.Logger
}

// NewBooksHandler creates a new books handler
func NewBooksHandler(catalog domain.CatalogRepository, logger *slog.Logger) *BooksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BooksHandler{catalog: catalog, logger: logger}
}

// List handles GET /api/v1/books
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.SearchFilter{
		Query:         query.Get("q"),
		Author:        query.Get("author"),
		Category:      query.Get("category"),
		AvailableOnly: parseBoolean(query.Get("availableOnly")),
	}

	books, err := h.catalog.SearchBooks(filter)
	if err != nil {
		h.logger.Error("catalog search failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	items := make([]BookResponse, 0, len(books))
	for _, book := range books {
		items = append(items, toBookResponse(book))
	}
	writeJSON(w, http.StatusOK, ListResponse{Items: items, Total: len(items)})
}

// Get handles GET /api/v1/books/{id}
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.catalog.FindBook(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func toBookResponse(book *domain.BookAvailability) BookResponse {
	return BookResponse{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		Category:        book.Category,
		ISBN:            book.ISBN,
		Description:     book.Description,
		PublishedYear:   book.PublishedYear,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
	}
}

func parseBoolean(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}
