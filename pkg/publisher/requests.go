package publisher

import "github.com/google/uuid"

// TranslationInput carries per-locale content for create/update operations.
// On update, nil-equivalent (empty) optional fields leave the stored value
// unchanged rather than clearing it.
type TranslationInput struct {
	Locale          string   `json:"locale"`
	Title           string   `json:"title"`
	Subtitle        string   `json:"subtitle,omitempty"`
	Excerpt         string   `json:"excerpt,omitempty"`
	Content         string   `json:"content"`
	MetaTitle       string   `json:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    []string `json:"meta_keywords,omitempty"`
}

// LinkInput carries one external link for attach operations.
type LinkInput struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Type  LinkType `json:"type,omitempty"`
}

// CreateArticleRequest is the authoring-path creation request: one locale,
// random-suffix slug strategy.
type CreateArticleRequest struct {
	CategoryID    uuid.UUID
	Translation   TranslationInput
	Tags          []string
	ExternalLinks []LinkInput
	FeaturedImage string
	ReadingTime   int
}

// CreateMultilocaleRequest is the public-API creation path: several locales
// at once, counter-suffix slug strategy.
type CreateMultilocaleRequest struct {
	CategoryID    uuid.UUID
	Translations  []TranslationInput
	FeaturedImage string
	IsFeatured    bool
}

// UpdateArticleRequest mutates an editable article. Nil pointer fields are
// left unchanged; Tags and ExternalLinks, when present, are full-set
// replacements.
type UpdateArticleRequest struct {
	ArticleID     uuid.UUID
	CategoryID    *uuid.UUID
	ReadingTime   *int
	FeaturedImage *string
	Translation   *TranslationInput
	Tags          *[]string
	ExternalLinks *[]LinkInput
}

// ApproveRequest approves a pending article, optionally publishing it in the
// same transition.
type ApproveRequest struct {
	ArticleID          uuid.UUID
	Comment            string
	PublishImmediately bool
}

// RejectRequest rejects a pending article. Reason is required.
type RejectRequest struct {
	ArticleID uuid.UUID
	Reason    string
}

// RequestChangesRequest sends a pending article back for changes. Feedback
// is required.
type RequestChangesRequest struct {
	ArticleID uuid.UUID
	Feedback  string
}

// UnpublishRequest moves a published article back to approved. Reason is
// required.
type UnpublishRequest struct {
	ArticleID uuid.UUID
	Reason    string
}

// BlockUserRequest suspends a user. DurationDays is required for temporary
// blocks and ignored for permanent ones.
type BlockUserRequest struct {
	UserID       uuid.UUID
	Type         BlockType
	Reason       string
	DurationDays int
}

// UnblockUserRequest lifts a user's active block.
type UnblockUserRequest struct {
	UserID uuid.UUID
	Reason string
}

// WarnUserRequest issues a warning. ExpiresInDays of zero means the warning
// never expires.
type WarnUserRequest struct {
	UserID        uuid.UUID
	Severity      WarningSeverity
	Title         string
	Reason        string
	ExpiresInDays int
}
