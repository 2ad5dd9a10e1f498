package repository

import (
	"fmt"
	"log/slog"

	"github.com/yourorg/libralend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type seedBook struct {
	book   domain.Book
	copies int
}

var seedBooks = []seedBook{
	{
		book: domain.Book{
			ID:            "book_1",
			Title:         "Clean Code",
			Author:        "Robert C. Martin",
			Category:      "Software Engineering",
			ISBN:          "9780132350884",
			Description:   "A handbook of agile software craftsmanship.",
			PublishedYear: 2008,
		},
		copies: 2,
	},
	{
		book: domain.Book{
			ID:            "book_2",
			Title:         "Design Patterns",
			Author:        "Erich Gamma",
			Category:      "Software Engineering",
			ISBN:          "9780201633610",
			Description:   "Elements of reusable object-oriented software.",
			PublishedYear: 1994,
		},
		copies: 1,
	},
	{
		book: domain.Book{
			ID:            "book_3",
			Title:         "The Pragmatic Programmer",
			Author:        "Andrew Hunt",
			Category:      "Software Engineering",
			ISBN:          "9780135957059",
			Description:   "Your journey to mastery, 20th anniversary edition.",
			PublishedYear: 2019,
		},
		copies: 3,
	},
	{
		book: domain.Book{
			ID:            "book_4",
			Title:         "Dune",
			Author:        "Frank Herbert",
			Category:      "Science Fiction",
			ISBN:          "9780441172719",
			Description:   "The desert planet Arrakis and the spice melange.",
			PublishedYear: 1965,
		},
		copies: 2,
	},
}

type seedMember struct {
	id       string
	email    string
	name     string
	password string
	role     domain.Role
}

var seedMembers = []seedMember{
	{id: "user_demo", email: "demo@example.com", name: "Demo Member", password: "demo1234", role: domain.RoleMember},
	{id: "user_librarian", email: "librarian@example.com", name: "Front Desk", password: "books4all", role: domain.RoleLibrarian},
	{id: "user_admin", email: "admin@example.com", name: "Admin", password: "admin1234", role: domain.RoleAdmin},
}

// SeedCatalog loads the demo catalog into the store. Copy IDs follow the
// bookID_cN pattern so they are easy to use from the CLI.
func SeedCatalog(store *CatalogStore, logger *slog.Logger) error {
	for _, entry := range seedBooks {
		if err := store.AddBook(&entry.book); err != nil {
			return err
		}
		for i := 1; i <= entry.copies; i++ {
			copyRec := &domain.Copy{
				ID:     fmt.Sprintf("%s_c%d", entry.book.ID, i),
				BookID: entry.book.ID,
				Status: domain.CopyAvailable,
			}
			if err := store.AddCopy(copyRec); err != nil {
				return err
			}
		}
	}
	if logger != nil {
		logger.Info("catalog seeded", slog.Int("books", len(seedBooks)))
	}
	return nil
}

// SeedMembers loads the demo accounts into the member store
func SeedMembers(store *MemberStore, logger *slog.Logger) error {
	for _, entry := range seedMembers {
		hash, err := bcrypt.GenerateFromPassword([]byte(entry.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		member := &domain.Member{
			ID:           entry.id,
			Email:        entry.email,
			Name:         entry.name,
			PasswordHash: string(hash),
			Role:         entry.role,
			Active:       true,
		}
		if err := store.Create(member); err != nil {
			return err
		}
	}
	if logger != nil {
		logger.Info("members seeded", slog.Int("members", len(seedMembers)))
	}
	return nil
}
