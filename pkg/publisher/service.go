package publisher

import (
	"context"

	"github.com/google/uuid"
)

// Service is the core publishing API: the content aggregate, the moderation
// state machine, and the trust gate. Every operation takes the acting user
// so capability checks live in one place instead of per endpoint.
type Service interface {
	// Content aggregate
	CreateArticle(ctx context.Context, actor *User, req CreateArticleRequest) (*Article, error)
	CreateMultilocaleArticle(ctx context.Context, actor *User, req CreateMultilocaleRequest) (*Article, error)
	GetArticle(ctx context.Context, actor *User, id uuid.UUID) (*Article, error)
	GetPublishedArticle(ctx context.Context, slug string) (*Article, error)
	ListPublishedArticles(ctx context.Context, filters ArticleFilters, page Page) ([]*Article, int, error)
	ListOwnArticles(ctx context.Context, actor *User, page Page) ([]*Article, int, error)
	UpdateArticle(ctx context.Context, actor *User, req UpdateArticleRequest) (*Article, error)
	SubmitArticle(ctx context.Context, actor *User, articleID uuid.UUID) (*Article, error)
	DeleteArticle(ctx context.Context, actor *User, articleID uuid.UUID) error

	// Moderation state machine
	ListPendingArticles(ctx context.Context, actor *User, page Page) ([]*Article, int, error)
	ApproveArticle(ctx context.Context, actor *User, req ApproveRequest) (*Article, error)
	RejectArticle(ctx context.Context, actor *User, req RejectRequest) (*Article, error)
	RequestChanges(ctx context.Context, actor *User, req RequestChangesRequest) (*Article, error)
	PublishArticle(ctx context.Context, actor *User, articleID uuid.UUID) (*Article, error)
	UnpublishArticle(ctx context.Context, actor *User, req UnpublishRequest) (*Article, error)
	ModerationLog(ctx context.Context, actor *User, articleID uuid.UUID) ([]*ModerationLogEntry, error)

	// Trust gate
	IsBlocked(ctx context.Context, userID uuid.UUID) (bool, error)
	BlockUser(ctx context.Context, actor *User, req BlockUserRequest) error
	UnblockUser(ctx context.Context, actor *User, req UnblockUserRequest) error
	WarnUser(ctx context.Context, actor *User, req WarnUserRequest) (*UserWarning, error)
	ActiveWarnings(ctx context.Context, userID uuid.UUID) ([]*UserWarning, error)
	UnreadWarningCount(ctx context.Context, userID uuid.UUID) (int, error)
	ListWarnings(ctx context.Context, actor *User, userID uuid.UUID, page Page) ([]*UserWarning, int, error)
	MarkWarningRead(ctx context.Context, actor *User, warningID uuid.UUID) error
}

// MediaCleaner removes stored images given a storage path or a previously
// issued public URL. The media pipeline implements it; the service only
// needs cleanup during article deletion.
type MediaCleaner interface {
	DeleteImage(ctx context.Context, pathOrURL string) error
}

// Option represents a functional option for configuring the service.
type Option func(*service)

// WithRepository sets the repository for the service.
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repo = repo
	}
}

// WithMediaCleaner sets the media cleanup collaborator used when deleting
// articles. Without one, stored images are left behind (and logged).
func WithMediaCleaner(mc MediaCleaner) Option {
	return func(s *service) {
		s.media = mc
	}
}
