// Package postgres implements publisher.Repository on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prokash-cms/prokash/pkg/publisher"
)

// DBTX is an interface that allows us to use either a connection pool or a
// transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements publisher.Repository using PostgreSQL.
type Repository struct {
	db   DBTX
	pool *pgxpool.Pool // nil when the repository is transaction-scoped
}

// NewWithPool creates a new PostgreSQL repository with a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool, pool: pool}
}

// WithTx runs fn against a transaction-scoped repository. Nested calls join
// the enclosing transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(publisher.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Article operations

const articleColumns = `
	id, slug, user_id, category_id, status, featured_image, reading_time,
	view_count, is_featured, revision_count, submitted_at, moderated_by,
	moderated_at, moderation_notes, published_at, created_at, updated_at`

func scanArticle(row pgx.Row) (*publisher.Article, error) {
	var a publisher.Article
	err := row.Scan(
		&a.ID, &a.Slug, &a.UserID, &a.CategoryID, &a.Status, &a.FeaturedImage,
		&a.ReadingTime, &a.ViewCount, &a.IsFeatured, &a.RevisionCount,
		&a.SubmittedAt, &a.ModeratedBy, &a.ModeratedAt, &a.ModerationNotes,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) CreateArticle(ctx context.Context, article *publisher.Article) error {
	query := `
		INSERT INTO articles (
			id, slug, user_id, category_id, status, featured_image,
			reading_time, view_count, is_featured, revision_count,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		article.ID, article.Slug, article.UserID, article.CategoryID,
		article.Status, article.FeaturedImage, article.ReadingTime,
		article.ViewCount, article.IsFeatured, article.RevisionCount,
		article.CreatedAt, article.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return publisher.NewValidationError("slug", "slug already in use")
		}
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (r *Repository) GetArticle(ctx context.Context, id uuid.UUID) (*publisher.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1 AND deleted_at IS NULL`
	return scanArticle(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetArticleBySlug(ctx context.Context, slug string) (*publisher.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE slug = $1 AND deleted_at IS NULL`
	return scanArticle(r.db.QueryRow(ctx, query, slug))
}

func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateArticle(ctx context.Context, article *publisher.Article) error {
	query := `
		UPDATE articles SET
			slug = $2, category_id = $3, status = $4, featured_image = $5,
			reading_time = $6, is_featured = $7, revision_count = $8,
			submitted_at = $9, moderated_by = $10, moderated_at = $11,
			moderation_notes = $12, published_at = $13, updated_at = $14
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		article.ID, article.Slug, article.CategoryID, article.Status,
		article.FeaturedImage, article.ReadingTime, article.IsFeatured,
		article.RevisionCount, article.SubmittedAt, article.ModeratedBy,
		article.ModeratedAt, article.ModerationNotes, article.PublishedAt,
		article.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return publisher.NewValidationError("slug", "slug already in use")
		}
		return fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

// TransitionArticle performs a conditional update: the row is written only if
// its status still equals from, so concurrent transitions have exactly one
// winner.
func (r *Repository) TransitionArticle(ctx context.Context, article *publisher.Article, from publisher.ArticleStatus) error {
	query := `
		UPDATE articles SET
			status = $3, submitted_at = $4, moderated_by = $5,
			moderated_at = $6, moderation_notes = $7, published_at = $8,
			updated_at = $9
		WHERE id = $1 AND status = $2 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		article.ID, from, article.Status, article.SubmittedAt,
		article.ModeratedBy, article.ModeratedAt, article.ModerationNotes,
		article.PublishedAt, article.UpdatedAt)
	if err != nil {
		return fmt.Errorf("transition article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a missing row.
		if _, err := r.GetArticle(ctx, article.ID); err != nil {
			return err
		}
		return publisher.ErrInvalidTransition
	}
	return nil
}

func (r *Repository) SoftDeleteArticle(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE articles SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

func (r *Repository) ListArticles(ctx context.Context, filters publisher.ArticleFilters, page publisher.Page) ([]*publisher.Article, int, error) {
	where := `deleted_at IS NULL`
	args := []interface{}{}
	n := 0

	addArg := func(clause string, value interface{}) {
		n++
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, n)
	}

	if filters.Status != nil {
		addArg("status = $%d", *filters.Status)
	}
	if filters.CategoryID != nil {
		addArg("category_id = $%d", *filters.CategoryID)
	}
	if filters.Featured != nil {
		addArg("is_featured = $%d", *filters.Featured)
	}
	if filters.Locale != "" {
		n++
		args = append(args, filters.Locale)
		where += fmt.Sprintf(` AND id IN (
			SELECT article_id FROM article_translations WHERE locale = $%d)`, n)
	}
	if filters.Search != "" {
		n++
		args = append(args, filters.Search)
		// same placeholder twice, against title and body
		where += fmt.Sprintf(` AND id IN (
			SELECT article_id FROM article_translations
			WHERE title ILIKE '%%' || $%[1]d || '%%' OR content ILIKE '%%' || $%[1]d || '%%')`, n)
	}

	return r.listArticles(ctx, where, "created_at DESC", args, page)
}

func (r *Repository) ListArticlesByOwner(ctx context.Context, ownerID uuid.UUID, page publisher.Page) ([]*publisher.Article, int, error) {
	return r.listArticles(ctx, `deleted_at IS NULL AND user_id = $1`,
		"created_at DESC", []interface{}{ownerID}, page)
}

func (r *Repository) ListPendingArticles(ctx context.Context, page publisher.Page) ([]*publisher.Article, int, error) {
	return r.listArticles(ctx, `deleted_at IS NULL AND status = $1`,
		"submitted_at ASC NULLS LAST", []interface{}{publisher.StatusPending}, page)
}

func (r *Repository) listArticles(ctx context.Context, where, order string, args []interface{}, page publisher.Page) ([]*publisher.Article, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM articles WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE ` + where +
		` ORDER BY ` + order
	if page.Size > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Size, page.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []*publisher.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

func (r *Repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE articles SET view_count = view_count + 1
		WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

// Translation operations

func (r *Repository) UpsertTranslation(ctx context.Context, tr *publisher.Translation) error {
	query := `
		INSERT INTO article_translations (
			id, article_id, locale, title, subtitle, excerpt, content,
			meta_title, meta_description, meta_keywords, slug_fragment,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (article_id, locale) DO UPDATE SET
			title = EXCLUDED.title, subtitle = EXCLUDED.subtitle,
			excerpt = EXCLUDED.excerpt, content = EXCLUDED.content,
			meta_title = EXCLUDED.meta_title,
			meta_description = EXCLUDED.meta_description,
			meta_keywords = EXCLUDED.meta_keywords,
			slug_fragment = EXCLUDED.slug_fragment,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		tr.ID, tr.ArticleID, tr.Locale, tr.Title, tr.Subtitle, tr.Excerpt,
		tr.Content, tr.MetaTitle, tr.MetaDescription, tr.MetaKeywords,
		tr.SlugFragment, tr.CreatedAt, tr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert translation: %w", err)
	}
	return nil
}

const translationColumns = `
	id, article_id, locale, title, subtitle, excerpt, content, meta_title,
	meta_description, meta_keywords, slug_fragment, created_at, updated_at`

func scanTranslation(row pgx.Row) (*publisher.Translation, error) {
	var tr publisher.Translation
	err := row.Scan(
		&tr.ID, &tr.ArticleID, &tr.Locale, &tr.Title, &tr.Subtitle,
		&tr.Excerpt, &tr.Content, &tr.MetaTitle, &tr.MetaDescription,
		&tr.MetaKeywords, &tr.SlugFragment, &tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &tr, nil
}

func (r *Repository) GetTranslation(ctx context.Context, articleID uuid.UUID, locale string) (*publisher.Translation, error) {
	query := `SELECT ` + translationColumns + `
		FROM article_translations WHERE article_id = $1 AND locale = $2`
	return scanTranslation(r.db.QueryRow(ctx, query, articleID, locale))
}

func (r *Repository) ListTranslations(ctx context.Context, articleID uuid.UUID) ([]*publisher.Translation, error) {
	query := `SELECT ` + translationColumns + `
		FROM article_translations WHERE article_id = $1 ORDER BY locale`

	rows, err := r.db.Query(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	var result []*publisher.Translation
	for rows.Next() {
		tr, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}

func (r *Repository) CountTranslations(ctx context.Context, articleID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM article_translations WHERE article_id = $1`,
		articleID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return count, nil
}

// Tag operations

// FindOrCreateTag relies on the unique index on tags.slug: the insert is a
// no-op for a concurrent loser, and the following select reads the winner's
// row.
func (r *Repository) FindOrCreateTag(ctx context.Context, nameBn, nameEn, slug string) (*publisher.Tag, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tags (id, name_bn, name_en, slug, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (slug) DO NOTHING`,
		uuid.New(), nameBn, nameEn, slug)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	var tag publisher.Tag
	err = r.db.QueryRow(ctx, `
		SELECT id, name_bn, name_en, slug, created_at FROM tags WHERE slug = $1`,
		slug).Scan(&tag.ID, &tag.NameBn, &tag.NameEn, &tag.Slug, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return &tag, nil
}

func (r *Repository) ReplaceArticleTags(ctx context.Context, articleID uuid.UUID, tagIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM article_tag WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("detach tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO article_tag (article_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, articleID, tagID); err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}
	return nil
}

func (r *Repository) ListArticleTags(ctx context.Context, articleID uuid.UUID) ([]*publisher.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.name_bn, t.name_en, t.slug, t.created_at
		FROM tags t
		JOIN article_tag at ON at.tag_id = t.id
		WHERE at.article_id = $1
		ORDER BY t.slug`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list article tags: %w", err)
	}
	defer rows.Close()

	var result []*publisher.Tag
	for rows.Next() {
		var tag publisher.Tag
		if err := rows.Scan(&tag.ID, &tag.NameBn, &tag.NameEn, &tag.Slug, &tag.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &tag)
	}
	return result, rows.Err()
}

// External link operations

func (r *Repository) FindOrCreateExternalLink(ctx context.Context, url, title string, linkType publisher.LinkType) (*publisher.ExternalLink, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO external_links (id, url, title, link_type, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (url) DO NOTHING`,
		uuid.New(), url, title, linkType)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("create external link: %w", err)
	}

	var link publisher.ExternalLink
	err = r.db.QueryRow(ctx, `
		SELECT id, url, title, link_type, created_at
		FROM external_links WHERE url = $1`,
		url).Scan(&link.ID, &link.URL, &link.Title, &link.Type, &link.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("find external link: %w", err)
	}
	return &link, nil
}

func (r *Repository) ReplaceArticleLinks(ctx context.Context, articleID uuid.UUID, linkIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM article_external_link WHERE article_id = $1`, articleID); err != nil {
		return fmt.Errorf("detach links: %w", err)
	}
	for _, linkID := range linkIDs {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO article_external_link (article_id, external_link_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, articleID, linkID); err != nil {
			return fmt.Errorf("attach link: %w", err)
		}
	}
	return nil
}

func (r *Repository) ListArticleLinks(ctx context.Context, articleID uuid.UUID) ([]*publisher.ExternalLink, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.id, l.url, l.title, l.link_type, l.created_at
		FROM external_links l
		JOIN article_external_link al ON al.external_link_id = l.id
		WHERE al.article_id = $1
		ORDER BY l.created_at`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list article links: %w", err)
	}
	defer rows.Close()

	var result []*publisher.ExternalLink
	for rows.Next() {
		var link publisher.ExternalLink
		if err := rows.Scan(&link.ID, &link.URL, &link.Title, &link.Type, &link.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &link)
	}
	return result, rows.Err()
}

// Moderation log operations

func (r *Repository) AppendModerationLog(ctx context.Context, entry *publisher.ModerationLogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO moderation_logs (
			id, article_id, moderator_id, action, comment,
			previous_status, new_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.ArticleID, entry.ModeratorID, entry.Action,
		entry.Comment, entry.PreviousStatus, entry.NewStatus, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append moderation log: %w", err)
	}
	return nil
}

func (r *Repository) ListModerationLog(ctx context.Context, articleID uuid.UUID) ([]*publisher.ModerationLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, article_id, moderator_id, action, comment,
		       previous_status, new_status, created_at
		FROM moderation_logs WHERE article_id = $1
		ORDER BY created_at DESC`, articleID)
	if err != nil {
		return nil, fmt.Errorf("list moderation log: %w", err)
	}
	defer rows.Close()

	var result []*publisher.ModerationLogEntry
	for rows.Next() {
		var entry publisher.ModerationLogEntry
		if err := rows.Scan(&entry.ID, &entry.ArticleID, &entry.ModeratorID,
			&entry.Action, &entry.Comment, &entry.PreviousStatus,
			&entry.NewStatus, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &entry)
	}
	return result, rows.Err()
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *publisher.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, token_epoch, created_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
		user.TokenEpoch, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return publisher.NewValidationError("email", "email already registered")
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*publisher.User, error) {
	var u publisher.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.TokenEpoch, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*publisher.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, token_epoch, created_at
		FROM users WHERE id = $1`, id))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*publisher.User, error) {
	return scanUser(r.db.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, token_epoch, created_at
		FROM users WHERE email = lower($1)`, email))
}

func (r *Repository) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

func (r *Repository) BumpTokenEpoch(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET token_epoch = token_epoch + 1 WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("bump token epoch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

// Category operations

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*publisher.Category, error) {
	var c publisher.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, name_bn, name_en, slug, created_at
		FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.NameBn, &c.NameEn, &c.Slug, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Trust operations

func (r *Repository) CreateBlock(ctx context.Context, block *publisher.UserBlock) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_blocks (
			id, user_id, blocked_by, block_type, reason, blocked_at,
			expires_at, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		block.ID, block.UserID, block.BlockedBy, block.Type, block.Reason,
		block.BlockedAt, block.ExpiresAt, block.IsActive)
	if err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	return nil
}

func (r *Repository) ActiveBlock(ctx context.Context, userID uuid.UUID) (*publisher.UserBlock, error) {
	var b publisher.UserBlock
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, blocked_by, block_type, reason, blocked_at,
		       expires_at, is_active, unblock_reason, unblocked_by, unblocked_at
		FROM user_blocks
		WHERE user_id = $1 AND is_active
		ORDER BY blocked_at DESC LIMIT 1`, userID).
		Scan(&b.ID, &b.UserID, &b.BlockedBy, &b.Type, &b.Reason, &b.BlockedAt,
			&b.ExpiresAt, &b.IsActive, &b.UnblockReason, &b.UnblockedBy,
			&b.UnblockedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) UpdateBlock(ctx context.Context, block *publisher.UserBlock) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_blocks SET
			is_active = $2, unblock_reason = $3, unblocked_by = $4,
			unblocked_at = $5, expires_at = $6
		WHERE id = $1`,
		block.ID, block.IsActive, block.UnblockReason, block.UnblockedBy,
		block.UnblockedAt, block.ExpiresAt)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateWarning(ctx context.Context, warning *publisher.UserWarning) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_warnings (
			id, user_id, issued_by, severity, title, reason, is_read,
			expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		warning.ID, warning.UserID, warning.IssuedBy, warning.Severity,
		warning.Title, warning.Reason, warning.IsRead, warning.ExpiresAt,
		warning.CreatedAt)
	if err != nil {
		return fmt.Errorf("create warning: %w", err)
	}
	return nil
}

func scanWarning(row pgx.Row) (*publisher.UserWarning, error) {
	var w publisher.UserWarning
	err := row.Scan(&w.ID, &w.UserID, &w.IssuedBy, &w.Severity, &w.Title,
		&w.Reason, &w.IsRead, &w.ExpiresAt, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publisher.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

const warningColumns = `
	id, user_id, issued_by, severity, title, reason, is_read, expires_at,
	created_at`

func (r *Repository) GetWarning(ctx context.Context, id uuid.UUID) (*publisher.UserWarning, error) {
	return scanWarning(r.db.QueryRow(ctx,
		`SELECT `+warningColumns+` FROM user_warnings WHERE id = $1`, id))
}

func (r *Repository) UpdateWarning(ctx context.Context, warning *publisher.UserWarning) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE user_warnings SET is_read = $2, expires_at = $3 WHERE id = $1`,
		warning.ID, warning.IsRead, warning.ExpiresAt)
	if err != nil {
		return fmt.Errorf("update warning: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return publisher.ErrNotFound
	}
	return nil
}

func (r *Repository) ListWarnings(ctx context.Context, userID uuid.UUID, page publisher.Page) ([]*publisher.UserWarning, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM user_warnings WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count warnings: %w", err)
	}

	query := `SELECT ` + warningColumns + `
		FROM user_warnings WHERE user_id = $1 ORDER BY created_at DESC`
	if page.Size > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", page.Size, page.Offset())
	}

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	var result []*publisher.UserWarning
	for rows.Next() {
		w, err := scanWarning(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, w)
	}
	return result, total, rows.Err()
}
