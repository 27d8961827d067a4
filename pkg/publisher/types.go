package publisher

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus is the domain type for article lifecycle states.
type ArticleStatus string

// Article status constants (typed).
const (
	StatusDraft            ArticleStatus = "draft"
	StatusPending          ArticleStatus = "pending"
	StatusApproved         ArticleStatus = "approved"
	StatusRejected         ArticleStatus = "rejected"
	StatusChangesRequested ArticleStatus = "changes_requested"
	StatusPublished        ArticleStatus = "published"
)

// ModerationAction names the action recorded in the audit trail.
type ModerationAction string

const (
	ActionApproved         ModerationAction = "approved"
	ActionRejected         ModerationAction = "rejected"
	ActionChangesRequested ModerationAction = "changes_requested"
	ActionPublished        ModerationAction = "published"
	ActionUnpublished      ModerationAction = "unpublished"
)

// Role is the closed set of user capability levels.
type Role string

const (
	RoleUser       Role = "user"
	RoleModerator  Role = "moderator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// BlockType distinguishes temporary from permanent blocks.
type BlockType string

const (
	BlockTemporary BlockType = "temporary"
	BlockPermanent BlockType = "permanent"
)

// WarningSeverity grades a warning.
type WarningSeverity string

const (
	SeverityLow      WarningSeverity = "low"
	SeverityMedium   WarningSeverity = "medium"
	SeverityHigh     WarningSeverity = "high"
	SeverityCritical WarningSeverity = "critical"
)

// LinkType classifies an external link attached to an article.
type LinkType string

const (
	LinkReference LinkType = "reference"
	LinkSource    LinkType = "source"
	LinkRelated   LinkType = "related"
	LinkCitation  LinkType = "citation"
)

// Article is the aggregate root for published content.
//
// ModeratedBy and ModeratedAt are set together or both nil. PublishedAt is
// set the first time the article reaches published and is not reset by
// unpublish. RevisionCount never decreases.
type Article struct {
	ID              uuid.UUID     `json:"id"`
	Slug            string        `json:"slug"`
	UserID          uuid.UUID     `json:"user_id"`
	CategoryID      uuid.UUID     `json:"category_id"`
	Status          ArticleStatus `json:"status"`
	FeaturedImage   string        `json:"featured_image,omitempty"`
	ReadingTime     int           `json:"reading_time,omitempty"`
	ViewCount       int64         `json:"view_count"`
	IsFeatured      bool          `json:"is_featured"`
	RevisionCount   int           `json:"revision_count"`
	SubmittedAt     *time.Time    `json:"submitted_at,omitempty"`
	ModeratedBy     *uuid.UUID    `json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time    `json:"moderated_at,omitempty"`
	ModerationNotes string        `json:"moderation_notes,omitempty"`
	PublishedAt     *time.Time    `json:"published_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeletedAt       *time.Time    `json:"deleted_at,omitempty"`

	// Populated by the service layer, not persisted on the article row.
	Translations  []*Translation  `json:"translations,omitempty"`
	Tags          []*Tag          `json:"tags,omitempty"`
	ExternalLinks []*ExternalLink `json:"external_links,omitempty"`
	Category      *Category       `json:"category,omitempty"`
}

// Editable reports whether the owner may still modify the article.
func (a *Article) Editable() bool {
	switch a.Status {
	case StatusDraft, StatusRejected, StatusChangesRequested:
		return true
	default:
		return false
	}
}

// Translation holds the per-locale content of an article. At most one
// translation exists per (article, locale) pair.
type Translation struct {
	ID              uuid.UUID `json:"id"`
	ArticleID       uuid.UUID `json:"article_id"`
	Locale          string    `json:"locale"`
	Title           string    `json:"title"`
	Subtitle        string    `json:"subtitle,omitempty"`
	Excerpt         string    `json:"excerpt,omitempty"`
	Content         string    `json:"content"`
	MetaTitle       string    `json:"meta_title,omitempty"`
	MetaDescription string    `json:"meta_description,omitempty"`
	MetaKeywords    []string  `json:"meta_keywords,omitempty"`
	SlugFragment    string    `json:"slug_fragment,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Tag is a bilingual label shared across articles. Tags are created lazily
// on first use and never deleted by article edits.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	NameBn    string    `json:"name_bn"`
	NameEn    string    `json:"name_en"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// ExternalLink is a deduplicated-by-URL reference shared across articles.
type ExternalLink struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Type      LinkType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ModerationLogEntry is one immutable record in an article's audit trail.
// Entries are append-only: they are never updated or deleted.
type ModerationLogEntry struct {
	ID             uuid.UUID        `json:"id"`
	ArticleID      uuid.UUID        `json:"article_id"`
	ModeratorID    uuid.UUID        `json:"moderator_id"`
	Action         ModerationAction `json:"action"`
	Comment        string           `json:"comment,omitempty"`
	PreviousStatus ArticleStatus    `json:"previous_status"`
	NewStatus      ArticleStatus    `json:"new_status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// UserBlock suspends a user's access, either until ExpiresAt or permanently.
type UserBlock struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	BlockedBy     uuid.UUID  `json:"blocked_by"`
	Type          BlockType  `json:"block_type"`
	Reason        string     `json:"reason"`
	BlockedAt     time.Time  `json:"blocked_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsActive      bool       `json:"is_active"`
	UnblockReason string     `json:"unblock_reason,omitempty"`
	UnblockedBy   *uuid.UUID `json:"unblocked_by,omitempty"`
	UnblockedAt   *time.Time `json:"unblocked_at,omitempty"`
}

// ActiveAt reports whether the block is in force at the given instant.
func (b *UserBlock) ActiveAt(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.Type == BlockPermanent {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}

// UserWarning is a non-blocking notice issued to a user.
type UserWarning struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	IssuedBy  uuid.UUID       `json:"issued_by"`
	Severity  WarningSeverity `json:"severity"`
	Title     string          `json:"title"`
	Reason    string          `json:"reason"`
	IsRead    bool            `json:"is_read"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ActiveAt reports whether the warning has not yet expired.
func (w *UserWarning) ActiveAt(now time.Time) bool {
	return w.ExpiresAt == nil || w.ExpiresAt.After(now)
}

// User is the identity consulted for ownership and capability checks.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	// TokenEpoch is embedded in issued tokens; bumping it voids every
	// outstanding token for the user.
	TokenEpoch int       `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// CanModerate reports whether the user holds moderator-or-above capability.
func (u *User) CanModerate() bool {
	switch u.Role {
	case RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports admin-or-above capability.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// IsSuperAdmin reports the highest capability level.
func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// Category is a read-only lookup used to validate article placement.
type Category struct {
	ID        uuid.UUID `json:"id"`
	NameBn    string    `json:"name_bn"`
	NameEn    string    `json:"name_en"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Page carries offset pagination for list operations.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page, treating page numbers as 1-based.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// ArticleFilters narrows public article listings. Locale keeps only articles
// that carry a translation in that locale.
type ArticleFilters struct {
	Status     *ArticleStatus
	CategoryID *uuid.UUID
	Featured   *bool
	Locale     string
	Search     string
}
