// Package catalog declares the bookshelf resources: their schemas and how
// they are laid out in storage.
package catalog

import (
	"bookshelf/internal/repo"
	"bookshelf/internal/resource"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores groups the persistence adapters of every resource.
type Stores struct {
	Books  resource.Store
	Heroes resource.Store
	Users  resource.Store
	Posts  resource.Store
	Tags   resource.Store
}

// MemoryStores returns in-memory stores. Deleting a book cascades to its
// heroes, deleting a user to their posts, and a deleted post is dropped
// from every tag.
func MemoryStores() Stores {
	books := repo.NewMemStore(BooksTable)
	heroes := repo.NewMemStore(HeroesTable)
	books.Cascade(heroes, "hbook")

	users := repo.NewMemStore(UsersTable)
	posts := repo.NewMemStore(PostsTable)
	tags := repo.NewMemStore(TagsTable)
	users.Cascade(posts, "author")
	posts.Detach(tags, "posts")

	return Stores{
		Books:  books,
		Heroes: heroes,
		Users:  users,
		Posts:  posts,
		Tags:   tags,
	}
}

// PostgresStores returns table stores on db. Cascades are declared in the
// migrations.
func PostgresStores(db *pgxpool.Pool) Stores {
	return Stores{
		Books:  repo.NewTableStore(db, BooksTable),
		Heroes: repo.NewTableStore(db, HeroesTable),
		Users:  repo.NewTableStore(db, UsersTable),
		Posts:  repo.NewTableStore(db, PostsTable),
		Tags:   repo.NewTableStore(db, TagsTable),
	}
}
