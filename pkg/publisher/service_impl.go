package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prokash-cms/prokash/pkg/publisher/slugify"
)

// service implements the Service interface
type service struct {
	repo  Repository
	media MediaCleaner
}

// New creates a new service instance with the given options.
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repo == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// allowedLocales is the closed set of supported translation locales.
var allowedLocales = map[string]bool{
	"bn": true, "en": true, "as": true, "gu": true, "hi": true,
	"mr": true, "ne": true, "or": true, "pa": true, "si": true,
}

const defaultReadingTime = 5

// inlineImagePattern matches image tags embedded in translation bodies so
// their objects can be cleaned up when the article is deleted.
var inlineImagePattern = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)

// Content aggregate operations

func (s *service) CreateArticle(ctx context.Context, actor *User, req CreateArticleRequest) (*Article, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := validateTranslationInput(req.Translation, true); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewValidationError("category_id", "category does not exist")
		}
		return nil, err
	}

	now := time.Now().UTC()
	readingTime := req.ReadingTime
	if readingTime <= 0 {
		readingTime = defaultReadingTime
	}

	article := &Article{
		ID:            uuid.New(),
		Slug:          slugify.WithSuffix(slugify.Slugify(req.Translation.Title)),
		UserID:        actor.ID,
		CategoryID:    req.CategoryID,
		Status:        StatusDraft,
		FeaturedImage: req.FeaturedImage,
		ReadingTime:   readingTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.CreateArticle(ctx, article); err != nil {
			return err
		}
		if err := tx.UpsertTranslation(ctx, buildTranslation(article.ID, req.Translation, now)); err != nil {
			return err
		}
		if err := attachTags(ctx, tx, article.ID, req.Tags); err != nil {
			return err
		}
		return attachLinks(ctx, tx, article.ID, req.ExternalLinks)
	})
	if err != nil {
		return nil, &ArticleError{ArticleID: article.ID, Op: "create", Err: err}
	}

	return s.loadAssociations(ctx, article)
}

func (s *service) CreateMultilocaleArticle(ctx context.Context, actor *User, req CreateMultilocaleRequest) (*Article, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if len(req.Translations) == 0 {
		return nil, NewValidationError("translations", "at least one translation is required")
	}
	for _, tr := range req.Translations {
		if err := validateTranslationInput(tr, true); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetCategory(ctx, req.CategoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, NewValidationError("category_id", "category does not exist")
		}
		return nil, err
	}

	// Public API path: counter-suffix uniqueness loop on the first
	// translation's title.
	base := slugify.Slugify(req.Translations[0].Title)
	if base == "" {
		base = "untitled"
	}
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}

	now := time.Now().UTC()
	article := &Article{
		ID:            uuid.New(),
		Slug:          slug,
		UserID:        actor.ID,
		CategoryID:    req.CategoryID,
		Status:        StatusDraft,
		FeaturedImage: req.FeaturedImage,
		IsFeatured:    req.IsFeatured,
		ReadingTime:   defaultReadingTime,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.CreateArticle(ctx, article); err != nil {
			return err
		}
		for _, input := range req.Translations {
			tr := buildTranslation(article.ID, input, now)
			tr.SlugFragment = slugify.Slugify(input.Title)
			if err := tx.UpsertTranslation(ctx, tr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &ArticleError{ArticleID: article.ID, Op: "create_multilocale", Err: err}
	}

	return s.loadAssociations(ctx, article)
}

func (s *service) GetArticle(ctx context.Context, actor *User, id uuid.UUID) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || (article.UserID != actor.ID && !actor.CanModerate()) {
		return nil, ErrUnauthorized
	}
	return s.loadAssociations(ctx, article)
}

func (s *service) GetPublishedArticle(ctx context.Context, slug string) (*Article, error) {
	article, err := s.repo.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article.Status != StatusPublished {
		return nil, ErrNotFound
	}
	if err := s.repo.IncrementViewCount(ctx, article.ID); err != nil {
		slog.Warn("failed to increment view count", "article_id", article.ID, "err", err)
	} else {
		article.ViewCount++
	}
	return s.loadAssociations(ctx, article)
}

func (s *service) ListPublishedArticles(ctx context.Context, filters ArticleFilters, page Page) ([]*Article, int, error) {
	if filters.Status == nil {
		published := StatusPublished
		filters.Status = &published
	}
	articles, total, err := s.repo.ListArticles(ctx, filters, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadAllAssociations(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *service) ListOwnArticles(ctx context.Context, actor *User, page Page) ([]*Article, int, error) {
	if actor == nil {
		return nil, 0, ErrUnauthorized
	}
	articles, total, err := s.repo.ListArticlesByOwner(ctx, actor.ID, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadAllAssociations(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *service) UpdateArticle(ctx context.Context, actor *User, req UpdateArticleRequest) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, req.ArticleID)
	if err != nil {
		return nil, err
	}
	if actor == nil || article.UserID != actor.ID {
		return nil, ErrUnauthorized
	}
	if err := canEdit(article.Status); err != nil {
		return nil, err
	}
	if req.Translation != nil {
		if err := validateTranslationInput(*req.Translation, false); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, NewValidationError("category_id", "category does not exist")
			}
			return nil, err
		}
	}

	now := time.Now().UTC()
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if req.CategoryID != nil {
			article.CategoryID = *req.CategoryID
		}
		if req.ReadingTime != nil {
			article.ReadingTime = *req.ReadingTime
		}
		if req.FeaturedImage != nil {
			article.FeaturedImage = *req.FeaturedImage
		}
		article.RevisionCount++
		article.UpdatedAt = now
		if err := tx.UpdateArticle(ctx, article); err != nil {
			return err
		}

		if req.Translation != nil {
			if err := mergeTranslation(ctx, tx, article.ID, *req.Translation, now); err != nil {
				return err
			}
		}
		if req.Tags != nil {
			if err := attachTags(ctx, tx, article.ID, *req.Tags); err != nil {
				return err
			}
		}
		if req.ExternalLinks != nil {
			if err := attachLinks(ctx, tx, article.ID, *req.ExternalLinks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &ArticleError{ArticleID: article.ID, Op: "update", Err: err}
	}

	return s.loadAssociations(ctx, article)
}

func (s *service) SubmitArticle(ctx context.Context, actor *User, articleID uuid.UUID) (*Article, error) {
	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if actor == nil || article.UserID != actor.ID {
		return nil, ErrUnauthorized
	}
	if err := canSubmit(article.Status); err != nil {
		return nil, err
	}
	count, err := s.repo.CountTranslations(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: article has no content", ErrNotSubmittable)
	}

	from := article.Status
	now := time.Now().UTC()
	article.Status = StatusPending
	article.SubmittedAt = &now
	article.UpdatedAt = now
	if err := s.repo.TransitionArticle(ctx, article, from); err != nil {
		return nil, err
	}
	return s.loadAssociations(ctx, article)
}

func (s *service) DeleteArticle(ctx context.Context, actor *User, articleID uuid.UUID) error {
	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return err
	}
	if actor == nil {
		return ErrUnauthorized
	}
	isOwner := article.UserID == actor.ID
	if !isOwner && !actor.CanModerate() {
		return ErrUnauthorized
	}
	// Owners may only delete from editable states; moderators from any.
	if isOwner && !actor.CanModerate() && !article.Editable() {
		return fmt.Errorf("%w: cannot delete an article that is %s", ErrUnauthorized, article.Status)
	}

	s.cleanupArticleImages(ctx, article)

	return s.repo.SoftDeleteArticle(ctx, articleID)
}

// cleanupArticleImages best-effort deletes every image reachable from the
// article: the featured image and inline images in every translation body.
// Failures are logged and never block record removal.
func (s *service) cleanupArticleImages(ctx context.Context, article *Article) {
	if s.media == nil {
		if article.FeaturedImage != "" {
			slog.Warn("no media cleaner configured; stored images left behind", "article_id", article.ID)
		}
		return
	}

	seen := make(map[string]bool)
	var targets []string
	add := func(pathOrURL string) {
		if pathOrURL == "" || seen[pathOrURL] {
			return
		}
		seen[pathOrURL] = true
		targets = append(targets, pathOrURL)
	}

	add(article.FeaturedImage)

	translations, err := s.repo.ListTranslations(ctx, article.ID)
	if err != nil {
		slog.Warn("failed to list translations for image cleanup", "article_id", article.ID, "err", err)
	}
	for _, tr := range translations {
		for _, match := range inlineImagePattern.FindAllStringSubmatch(tr.Content, -1) {
			add(match[1])
		}
	}

	for _, target := range targets {
		if err := s.media.DeleteImage(ctx, target); err != nil {
			slog.Warn("failed to delete article image", "article_id", article.ID, "target", target, "err", err)
		}
	}
}

// Helpers

func validateTranslationInput(tr TranslationInput, requireAll bool) error {
	fields := make(map[string]string)
	if requireAll || tr.Title != "" {
		if strings.TrimSpace(tr.Title) == "" {
			fields["title"] = "title is required"
		} else if len(tr.Title) > 255 {
			fields["title"] = "title must not exceed 255 characters"
		}
	}
	if requireAll && strings.TrimSpace(tr.Content) == "" {
		fields["content"] = "content is required"
	}
	if requireAll || tr.Locale != "" {
		if !allowedLocales[tr.Locale] {
			fields["locale"] = "unsupported locale"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func buildTranslation(articleID uuid.UUID, input TranslationInput, now time.Time) *Translation {
	excerpt := input.Excerpt
	if excerpt == "" {
		excerpt = DeriveExcerpt(input.Content)
	}
	return &Translation{
		ID:              uuid.New(),
		ArticleID:       articleID,
		Locale:          input.Locale,
		Title:           input.Title,
		Subtitle:        input.Subtitle,
		Excerpt:         excerpt,
		Content:         input.Content,
		MetaTitle:       input.MetaTitle,
		MetaDescription: input.MetaDescription,
		MetaKeywords:    input.MetaKeywords,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// mergeTranslation updates the locale's translation in place, creating it if
// absent. Fields not supplied are left unchanged, not nulled.
func mergeTranslation(ctx context.Context, repo Repository, articleID uuid.UUID, input TranslationInput, now time.Time) error {
	locale := input.Locale
	if locale == "" {
		locale = "bn"
		input.Locale = locale
	}

	existing, err := repo.GetTranslation(ctx, articleID, locale)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		return repo.UpsertTranslation(ctx, buildTranslation(articleID, input, now))
	}

	if input.Title != "" {
		existing.Title = input.Title
	}
	if input.Content != "" {
		existing.Content = input.Content
		if input.Excerpt == "" {
			existing.Excerpt = DeriveExcerpt(input.Content)
		}
	}
	if input.Excerpt != "" {
		existing.Excerpt = input.Excerpt
	}
	if input.Subtitle != "" {
		existing.Subtitle = input.Subtitle
	}
	if input.MetaTitle != "" {
		existing.MetaTitle = input.MetaTitle
	}
	if input.MetaDescription != "" {
		existing.MetaDescription = input.MetaDescription
	}
	if input.MetaKeywords != nil {
		existing.MetaKeywords = input.MetaKeywords
	}
	existing.UpdatedAt = now
	return repo.UpsertTranslation(ctx, existing)
}

// attachTags resolves tag names by find-or-create and replaces the article's
// tag set. Names are normalized by stripping a leading '#' and slugified so
// "#Science" and "science" resolve to the same tag.
func attachTags(ctx context.Context, repo Repository, articleID uuid.UUID, names []string) error {
	if names == nil {
		return nil
	}
	var tagIDs []uuid.UUID
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#"))
		if name == "" {
			continue
		}
		slug := slugify.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		tag, err := repo.FindOrCreateTag(ctx, name, name, slug)
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	return repo.ReplaceArticleTags(ctx, articleID, tagIDs)
}

// attachLinks resolves links by find-or-create on URL and replaces the
// article's link set (detach-then-reattach).
func attachLinks(ctx context.Context, repo Repository, articleID uuid.UUID, links []LinkInput) error {
	if links == nil {
		return nil
	}
	var linkIDs []uuid.UUID
	seen := make(map[string]bool)
	for _, input := range links {
		if input.URL == "" || input.Title == "" || seen[input.URL] {
			continue
		}
		seen[input.URL] = true
		linkType := input.Type
		if linkType == "" {
			linkType = LinkReference
		}
		link, err := repo.FindOrCreateExternalLink(ctx, input.URL, input.Title, linkType)
		if err != nil {
			return err
		}
		linkIDs = append(linkIDs, link.ID)
	}
	return repo.ReplaceArticleLinks(ctx, articleID, linkIDs)
}

func (s *service) loadAssociations(ctx context.Context, article *Article) (*Article, error) {
	translations, err := s.repo.ListTranslations(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.Translations = translations

	tags, err := s.repo.ListArticleTags(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.Tags = tags

	links, err := s.repo.ListArticleLinks(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	article.ExternalLinks = links

	if category, err := s.repo.GetCategory(ctx, article.CategoryID); err == nil {
		article.Category = category
	}
	return article, nil
}

func (s *service) loadAllAssociations(ctx context.Context, articles []*Article) error {
	for _, article := range articles {
		if _, err := s.loadAssociations(ctx, article); err != nil {
			return err
		}
	}
	return nil
}
