package publisher

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for object-storage backends.
type BlobStore interface {
	// Upload stores an object under the given key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download opens an object for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object under the key. Deleting a missing object is
	// not an error.
	Delete(ctx context.Context, key string) error
}

// Repository defines the persistence interface for the publishing domain.
//
// Implementations must enforce slug/tag/link uniqueness at the store level;
// find-or-create losers fall back to a re-read instead of erroring.
type Repository interface {
	// WithTx runs fn against a transactional view of the repository. All
	// writes inside fn commit together or roll back together.
	WithTx(ctx context.Context, fn func(Repository) error) error

	// Article operations
	CreateArticle(ctx context.Context, article *Article) error
	GetArticle(ctx context.Context, id uuid.UUID) (*Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateArticle(ctx context.Context, article *Article) error
	// TransitionArticle persists article only if its stored status still
	// equals from. A concurrent winner leaves the loser with
	// ErrInvalidTransition and no writes.
	TransitionArticle(ctx context.Context, article *Article, from ArticleStatus) error
	SoftDeleteArticle(ctx context.Context, id uuid.UUID) error
	ListArticles(ctx context.Context, filters ArticleFilters, page Page) ([]*Article, int, error)
	ListArticlesByOwner(ctx context.Context, ownerID uuid.UUID, page Page) ([]*Article, int, error)
	ListPendingArticles(ctx context.Context, page Page) ([]*Article, int, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error

	// Translation operations
	UpsertTranslation(ctx context.Context, tr *Translation) error
	GetTranslation(ctx context.Context, articleID uuid.UUID, locale string) (*Translation, error)
	ListTranslations(ctx context.Context, articleID uuid.UUID) ([]*Translation, error)
	CountTranslations(ctx context.Context, articleID uuid.UUID) (int, error)

	// Tag operations
	FindOrCreateTag(ctx context.Context, nameBn, nameEn, slug string) (*Tag, error)
	ReplaceArticleTags(ctx context.Context, articleID uuid.UUID, tagIDs []uuid.UUID) error
	ListArticleTags(ctx context.Context, articleID uuid.UUID) ([]*Tag, error)

	// External link operations
	FindOrCreateExternalLink(ctx context.Context, url, title string, linkType LinkType) (*ExternalLink, error)
	ReplaceArticleLinks(ctx context.Context, articleID uuid.UUID, linkIDs []uuid.UUID) error
	ListArticleLinks(ctx context.Context, articleID uuid.UUID) ([]*ExternalLink, error)

	// Moderation log operations. The log is append-only: no update or
	// delete is exposed.
	AppendModerationLog(ctx context.Context, entry *ModerationLogEntry) error
	ListModerationLog(ctx context.Context, articleID uuid.UUID) ([]*ModerationLogEntry, error)

	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// BumpTokenEpoch voids every outstanding token for the user.
	BumpTokenEpoch(ctx context.Context, userID uuid.UUID) error

	// Category lookup (read-only)
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)

	// Trust operations
	CreateBlock(ctx context.Context, block *UserBlock) error
	// ActiveBlock returns the user's current is_active block row, or
	// ErrNotFound when none exists. Expiry is evaluated by the caller.
	ActiveBlock(ctx context.Context, userID uuid.UUID) (*UserBlock, error)
	UpdateBlock(ctx context.Context, block *UserBlock) error
	CreateWarning(ctx context.Context, warning *UserWarning) error
	GetWarning(ctx context.Context, id uuid.UUID) (*UserWarning, error)
	UpdateWarning(ctx context.Context, warning *UserWarning) error
	ListWarnings(ctx context.Context, userID uuid.UUID, page Page) ([]*UserWarning, int, error)
}
