// Package memory provides an in-memory Repository for tests and local
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// Repository implements publisher.Repository using in-memory storage.
type Repository struct {
	mu sync.RWMutex

	articles     map[uuid.UUID]*publisher.Article
	slugIndex    map[string]uuid.UUID
	translations map[uuid.UUID]map[string]*publisher.Translation

	tags        map[uuid.UUID]*publisher.Tag
	tagsBySlug  map[string]uuid.UUID
	articleTags map[uuid.UUID][]uuid.UUID

	links        map[uuid.UUID]*publisher.ExternalLink
	linksByURL   map[string]uuid.UUID
	articleLinks map[uuid.UUID][]uuid.UUID

	moderationLog map[uuid.UUID][]*publisher.ModerationLogEntry

	users        map[uuid.UUID]*publisher.User
	usersByEmail map[string]uuid.UUID

	categories map[uuid.UUID]*publisher.Category

	blocks   map[uuid.UUID]*publisher.UserBlock
	warnings map[uuid.UUID]*publisher.UserWarning
}

// New creates a new in-memory repository.
func New() *Repository {
	return &Repository{
		articles:      make(map[uuid.UUID]*publisher.Article),
		slugIndex:     make(map[string]uuid.UUID),
		translations:  make(map[uuid.UUID]map[string]*publisher.Translation),
		tags:          make(map[uuid.UUID]*publisher.Tag),
		tagsBySlug:    make(map[string]uuid.UUID),
		articleTags:   make(map[uuid.UUID][]uuid.UUID),
		links:         make(map[uuid.UUID]*publisher.ExternalLink),
		linksByURL:    make(map[string]uuid.UUID),
		articleLinks:  make(map[uuid.UUID][]uuid.UUID),
		moderationLog: make(map[uuid.UUID][]*publisher.ModerationLogEntry),
		users:         make(map[uuid.UUID]*publisher.User),
		usersByEmail:  make(map[string]uuid.UUID),
		categories:    make(map[uuid.UUID]*publisher.Category),
		blocks:        make(map[uuid.UUID]*publisher.UserBlock),
		warnings:      make(map[uuid.UUID]*publisher.UserWarning),
	}
}

// WithTx runs fn against the repository itself. Individual operations are
// atomic under the mutex; the memory implementation offers no rollback and
// exists for tests, where partial writes from a failing fn are acceptable.
func (r *Repository) WithTx(ctx context.Context, fn func(publisher.Repository) error) error {
	return fn(r)
}

// Article operations

func (r *Repository) CreateArticle(ctx context.Context, article *publisher.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.slugIndex[article.Slug]; taken {
		return publisher.NewValidationError("slug", "slug already in use")
	}

	// Copy to avoid external modifications
	articleCopy := *article
	r.articles[article.ID] = &articleCopy
	r.slugIndex[article.Slug] = article.ID
	return nil
}

func (r *Repository) GetArticle(ctx context.Context, id uuid.UUID) (*publisher.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, exists := r.articles[id]
	if !exists || article.DeletedAt != nil {
		return nil, publisher.ErrNotFound
	}
	articleCopy := *article
	return &articleCopy, nil
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*publisher.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.slugIndex[slug]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	article := r.articles[id]
	if article == nil || article.DeletedAt != nil {
		return nil, publisher.ErrNotFound
	}
	articleCopy := *article
	return &articleCopy, nil
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.slugIndex[slug]
	return exists, nil
}

func (r *Repository) UpdateArticle(ctx context.Context, article *publisher.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.articles[article.ID]
	if !exists || existing.DeletedAt != nil {
		return publisher.ErrNotFound
	}

	if existing.Slug != article.Slug {
		if _, taken := r.slugIndex[article.Slug]; taken {
			return publisher.NewValidationError("slug", "slug already in use")
		}
		delete(r.slugIndex, existing.Slug)
		r.slugIndex[article.Slug] = article.ID
	}

	articleCopy := *article
	r.articles[article.ID] = &articleCopy
	return nil
}

// TransitionArticle persists the article only if the stored status still
// equals from; a concurrent winner leaves the loser with
// ErrInvalidTransition.
func (r *Repository) TransitionArticle(ctx context.Context, article *publisher.Article, from publisher.ArticleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.articles[article.ID]
	if !exists || existing.DeletedAt != nil {
		return publisher.ErrNotFound
	}
	if existing.Status != from {
		return publisher.ErrInvalidTransition
	}

	articleCopy := *article
	r.articles[article.ID] = &articleCopy
	return nil
}

func (r *Repository) SoftDeleteArticle(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, exists := r.articles[id]
	if !exists || article.DeletedAt != nil {
		return publisher.ErrNotFound
	}

	now := time.Now().UTC()
	article.DeletedAt = &now
	article.UpdatedAt = now
	delete(r.slugIndex, article.Slug)
	return nil
}

func (r *Repository) ListArticles(ctx context.Context, filters publisher.ArticleFilters, page publisher.Page) ([]*publisher.Article, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*publisher.Article
	for _, article := range r.articles {
		if article.DeletedAt != nil {
			continue
		}
		if filters.Status != nil && article.Status != *filters.Status {
			continue
		}
		if filters.CategoryID != nil && article.CategoryID != *filters.CategoryID {
			continue
		}
		if filters.Featured != nil && article.IsFeatured != *filters.Featured {
			continue
		}
		if filters.Locale != "" {
			if _, ok := r.translations[article.ID][filters.Locale]; !ok {
				continue
			}
		}
		if filters.Search != "" && !r.matchesSearch(article.ID, filters.Search) {
			continue
		}
		articleCopy := *article
		matched = append(matched, &articleCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page)
}

func (r *Repository) ListArticlesByOwner(ctx context.Context, ownerID uuid.UUID, page publisher.Page) ([]*publisher.Article, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*publisher.Article
	for _, article := range r.articles {
		if article.DeletedAt != nil || article.UserID != ownerID {
			continue
		}
		articleCopy := *article
		matched = append(matched, &articleCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page)
}

// ListPendingArticles returns the moderation queue, oldest submission first.
func (r *Repository) ListPendingArticles(ctx context.Context, page publisher.Page) ([]*publisher.Article, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*publisher.Article
	for _, article := range r.articles {
		if article.DeletedAt != nil || article.Status != publisher.StatusPending {
			continue
		}
		articleCopy := *article
		matched = append(matched, &articleCopy)
	}

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].CreatedAt, matched[j].CreatedAt
		if matched[i].SubmittedAt != nil {
			ti = *matched[i].SubmittedAt
		}
		if matched[j].SubmittedAt != nil {
			tj = *matched[j].SubmittedAt
		}
		return ti.Before(tj)
	})
	return paginate(matched, page)
}

func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, exists := r.articles[id]
	if !exists || article.DeletedAt != nil {
		return publisher.ErrNotFound
	}
	article.ViewCount++
	return nil
}

// matchesSearch does a naive substring scan over titles. Callers hold r.mu.
func (r *Repository) matchesSearch(articleID uuid.UUID, query string) bool {
	query = strings.ToLower(query)
	for _, tr := range r.translations[articleID] {
		if strings.Contains(strings.ToLower(tr.Title), query) ||
			strings.Contains(strings.ToLower(tr.Content), query) {
			return true
		}
	}
	return false
}

// Translation operations

func (r *Repository) UpsertTranslation(ctx context.Context, tr *publisher.Translation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[tr.ArticleID]; !exists {
		return publisher.ErrNotFound
	}

	byLocale, exists := r.translations[tr.ArticleID]
	if !exists {
		byLocale = make(map[string]*publisher.Translation)
		r.translations[tr.ArticleID] = byLocale
	}

	trCopy := *tr
	if existing, ok := byLocale[tr.Locale]; ok {
		trCopy.ID = existing.ID
		trCopy.CreatedAt = existing.CreatedAt
	}
	byLocale[tr.Locale] = &trCopy
	return nil
}

func (r *Repository) GetTranslation(ctx context.Context, articleID uuid.UUID, locale string) (*publisher.Translation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, exists := r.translations[articleID][locale]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	trCopy := *tr
	return &trCopy, nil
}

func (r *Repository) ListTranslations(ctx context.Context, articleID uuid.UUID) ([]*publisher.Translation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*publisher.Translation
	for _, tr := range r.translations[articleID] {
		trCopy := *tr
		result = append(result, &trCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Locale < result[j].Locale
	})
	return result, nil
}

func (r *Repository) CountTranslations(ctx context.Context, articleID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.translations[articleID]), nil
}

// Tag operations

func (r *Repository) FindOrCreateTag(ctx context.Context, nameBn, nameEn, slug string) (*publisher.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.tagsBySlug[slug]; exists {
		tagCopy := *r.tags[id]
		return &tagCopy, nil
	}

	tag := &publisher.Tag{
		ID:        uuid.New(),
		NameBn:    nameBn,
		NameEn:    nameEn,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
	}
	r.tags[tag.ID] = tag
	r.tagsBySlug[slug] = tag.ID

	tagCopy := *tag
	return &tagCopy, nil
}

func (r *Repository) ReplaceArticleTags(ctx context.Context, articleID uuid.UUID, tagIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[articleID]; !exists {
		return publisher.ErrNotFound
	}
	r.articleTags[articleID] = append([]uuid.UUID(nil), tagIDs...)
	return nil
}

func (r *Repository) ListArticleTags(ctx context.Context, articleID uuid.UUID) ([]*publisher.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*publisher.Tag
	for _, id := range r.articleTags[articleID] {
		if tag, exists := r.tags[id]; exists {
			tagCopy := *tag
			result = append(result, &tagCopy)
		}
	}
	return result, nil
}

// External link operations

func (r *Repository) FindOrCreateExternalLink(ctx context.Context, url, title string, linkType publisher.LinkType) (*publisher.ExternalLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.linksByURL[url]; exists {
		linkCopy := *r.links[id]
		return &linkCopy, nil
	}

	link := &publisher.ExternalLink{
		ID:        uuid.New(),
		URL:       url,
		Title:     title,
		Type:      linkType,
		CreatedAt: time.Now().UTC(),
	}
	r.links[link.ID] = link
	r.linksByURL[url] = link.ID

	linkCopy := *link
	return &linkCopy, nil
}

func (r *Repository) ReplaceArticleLinks(ctx context.Context, articleID uuid.UUID, linkIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[articleID]; !exists {
		return publisher.ErrNotFound
	}
	r.articleLinks[articleID] = append([]uuid.UUID(nil), linkIDs...)
	return nil
}

func (r *Repository) ListArticleLinks(ctx context.Context, articleID uuid.UUID) ([]*publisher.ExternalLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*publisher.ExternalLink
	for _, id := range r.articleLinks[articleID] {
		if link, exists := r.links[id]; exists {
			linkCopy := *link
			result = append(result, &linkCopy)
		}
	}
	return result, nil
}

// Moderation log operations

func (r *Repository) AppendModerationLog(ctx context.Context, entry *publisher.ModerationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entryCopy := *entry
	r.moderationLog[entry.ArticleID] = append(r.moderationLog[entry.ArticleID], &entryCopy)
	return nil
}

func (r *Repository) ListModerationLog(ctx context.Context, articleID uuid.UUID) ([]*publisher.ModerationLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.moderationLog[articleID]
	result := make([]*publisher.ModerationLogEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entryCopy := *entries[i]
		result = append(result, &entryCopy)
	}
	return result, nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *publisher.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := r.usersByEmail[email]; taken {
		return publisher.NewValidationError("email", "email already registered")
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByEmail[email] = user.ID
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*publisher.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*publisher.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByEmail[strings.ToLower(email)]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return publisher.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *Repository) BumpTokenEpoch(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		return publisher.ErrNotFound
	}
	user.TokenEpoch++
	return nil
}

// Category operations

// SeedCategory installs a category. The service only reads categories; this
// exists for tests and bootstrap.
func (r *Repository) SeedCategory(category *publisher.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	categoryCopy := *category
	r.categories[category.ID] = &categoryCopy
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*publisher.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category, exists := r.categories[id]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	categoryCopy := *category
	return &categoryCopy, nil
}

// Trust operations

func (r *Repository) CreateBlock(ctx context.Context, block *publisher.UserBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	blockCopy := *block
	r.blocks[block.ID] = &blockCopy
	return nil
}

func (r *Repository) ActiveBlock(ctx context.Context, userID uuid.UUID) (*publisher.UserBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *publisher.UserBlock
	for _, block := range r.blocks {
		if block.UserID != userID || !block.IsActive {
			continue
		}
		if latest == nil || block.BlockedAt.After(latest.BlockedAt) {
			latest = block
		}
	}
	if latest == nil {
		return nil, publisher.ErrNotFound
	}
	blockCopy := *latest
	return &blockCopy, nil
}

func (r *Repository) UpdateBlock(ctx context.Context, block *publisher.UserBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[block.ID]; !exists {
		return publisher.ErrNotFound
	}
	blockCopy := *block
	r.blocks[block.ID] = &blockCopy
	return nil
}

func (r *Repository) CreateWarning(ctx context.Context, warning *publisher.UserWarning) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	warningCopy := *warning
	r.warnings[warning.ID] = &warningCopy
	return nil
}

func (r *Repository) GetWarning(ctx context.Context, id uuid.UUID) (*publisher.UserWarning, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	warning, exists := r.warnings[id]
	if !exists {
		return nil, publisher.ErrNotFound
	}
	warningCopy := *warning
	return &warningCopy, nil
}

func (r *Repository) UpdateWarning(ctx context.Context, warning *publisher.UserWarning) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.warnings[warning.ID]; !exists {
		return publisher.ErrNotFound
	}
	warningCopy := *warning
	r.warnings[warning.ID] = &warningCopy
	return nil
}

func (r *Repository) ListWarnings(ctx context.Context, userID uuid.UUID, page publisher.Page) ([]*publisher.UserWarning, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*publisher.UserWarning
	for _, warning := range r.warnings {
		if warning.UserID != userID {
			continue
		}
		warningCopy := *warning
		matched = append(matched, &warningCopy)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, page)
}

// paginate applies 1-based offset pagination, returning the page slice and
// the pre-pagination total.
func paginate[T any](items []T, page publisher.Page) ([]T, int, error) {
	total := len(items)
	if page.Size <= 0 {
		return items, total, nil
	}
	offset := page.Offset()
	if offset >= total {
		return []T{}, total, nil
	}
	end := offset + page.Size
	if end > total {
		end = total
	}
	return items[offset:end], total, nil
}
