package memory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/repo/memory"
)

func storedArticle(t *testing.T, repo *memory.Repository, slug string) *publisher.Article {
	t.Helper()
	article := &publisher.Article{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Slug:      slug,
		Status:    publisher.StatusDraft,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateArticle(context.Background(), article))
	return article
}

func TestArticleSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	storedArticle(t, repo, "taken")

	dup := &publisher.Article{ID: uuid.New(), Slug: "taken", Status: publisher.StatusDraft}
	err := repo.CreateArticle(ctx, dup)
	assert.ErrorIs(t, err, publisher.ErrValidation)

	exists, err := repo.SlugExists(ctx, "taken")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTransitionArticle(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	article := storedArticle(t, repo, "cas")
	article.Status = publisher.StatusPending
	require.NoError(t, repo.UpdateArticle(ctx, article))

	t.Run("succeeds when the stored status matches", func(t *testing.T) {
		next := *article
		next.Status = publisher.StatusApproved
		require.NoError(t, repo.TransitionArticle(ctx, &next, publisher.StatusPending))

		got, err := repo.GetArticle(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, publisher.StatusApproved, got.Status)
	})

	t.Run("fails when the stored status moved", func(t *testing.T) {
		stale := *article
		stale.Status = publisher.StatusRejected
		err := repo.TransitionArticle(ctx, &stale, publisher.StatusPending)
		assert.ErrorIs(t, err, publisher.ErrInvalidTransition)
	})

	t.Run("missing article is not found", func(t *testing.T) {
		ghost := &publisher.Article{ID: uuid.New(), Status: publisher.StatusApproved}
		err := repo.TransitionArticle(ctx, ghost, publisher.StatusPending)
		assert.ErrorIs(t, err, publisher.ErrNotFound)
	})
}

func TestSoftDeleteArticle(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	article := storedArticle(t, repo, "gone-soon")

	require.NoError(t, repo.SoftDeleteArticle(ctx, article.ID))

	_, err := repo.GetArticle(ctx, article.ID)
	assert.ErrorIs(t, err, publisher.ErrNotFound)
	_, err = repo.GetArticleBySlug(ctx, "gone-soon")
	assert.ErrorIs(t, err, publisher.ErrNotFound)

	// deleting twice is not found
	assert.ErrorIs(t, repo.SoftDeleteArticle(ctx, article.ID), publisher.ErrNotFound)

	// the slug is free for reuse after deletion
	reuse := &publisher.Article{ID: uuid.New(), Slug: "gone-soon", Status: publisher.StatusDraft}
	assert.NoError(t, repo.CreateArticle(ctx, reuse))
}

func TestUpsertTranslation(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	article := storedArticle(t, repo, "i18n")

	first := &publisher.Translation{
		ID: uuid.New(), ArticleID: article.ID, Locale: "bn",
		Title: "প্রথম", Content: "body", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertTranslation(ctx, first))

	// a second upsert for the same locale keeps identity and creation time
	second := &publisher.Translation{
		ID: uuid.New(), ArticleID: article.ID, Locale: "bn",
		Title: "দ্বিতীয়", Content: "body 2",
	}
	require.NoError(t, repo.UpsertTranslation(ctx, second))

	got, err := repo.GetTranslation(ctx, article.ID, "bn")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
	assert.Equal(t, "দ্বিতীয়", got.Title)

	count, err := repo.CountTranslations(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindOrCreateTag(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	a, err := repo.FindOrCreateTag(ctx, "বিজ্ঞান", "science", "science")
	require.NoError(t, err)
	b, err := repo.FindOrCreateTag(ctx, "", "", "science")
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "science", b.NameEn, "existing tag wins over new names")
}

func TestFindOrCreateExternalLink(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	a, err := repo.FindOrCreateExternalLink(ctx, "https://example.com/x", "X", publisher.LinkReference)
	require.NoError(t, err)
	b, err := repo.FindOrCreateExternalLink(ctx, "https://example.com/x", "other", publisher.LinkReference)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestListArticlesLocaleFilter(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	bengali := storedArticle(t, repo, "bn-only")
	require.NoError(t, repo.UpsertTranslation(ctx, &publisher.Translation{
		ID: uuid.New(), ArticleID: bengali.ID, Locale: "bn", Title: "শিরোনাম", Content: "c",
	}))
	english := storedArticle(t, repo, "en-only")
	require.NoError(t, repo.UpsertTranslation(ctx, &publisher.Translation{
		ID: uuid.New(), ArticleID: english.ID, Locale: "en", Title: "Title", Content: "c",
	}))

	got, total, err := repo.ListArticles(ctx, publisher.ArticleFilters{Locale: "bn"}, publisher.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "bn-only", got[0].Slug)
}

func TestModerationLogOrder(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	article := storedArticle(t, repo, "audited")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendModerationLog(ctx, &publisher.ModerationLogEntry{
			ID:        uuid.New(),
			ArticleID: article.ID,
			Action:    publisher.ActionApproved,
			Comment:   fmt.Sprintf("entry %d", i),
			CreatedAt: time.Now().UTC(),
		}))
	}

	entries, err := repo.ListModerationLog(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 2", entries[0].Comment, "newest entry first")
	assert.Equal(t, "entry 0", entries[2].Comment)
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	owner := uuid.New()

	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		require.NoError(t, repo.CreateArticle(ctx, &publisher.Article{
			ID:        uuid.New(),
			UserID:    owner,
			Slug:      fmt.Sprintf("story-%d", i),
			Status:    publisher.StatusDraft,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	page1, total, err := repo.ListArticlesByOwner(ctx, owner, publisher.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, page1, 10)
	assert.Equal(t, "story-24", page1[0].Slug, "newest first")

	page3, total, err := repo.ListArticlesByOwner(ctx, owner, publisher.Page{Number: 3, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page3, 5)

	empty, total, err := repo.ListArticlesByOwner(ctx, owner, publisher.Page{Number: 4, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Empty(t, empty)
}

func TestListPendingArticlesOrder(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	base := time.Now().UTC()
	// insert newest submission first to prove ordering is by SubmittedAt
	for i := 2; i >= 0; i-- {
		submitted := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateArticle(ctx, &publisher.Article{
			ID:          uuid.New(),
			Slug:        fmt.Sprintf("pending-%d", i),
			Status:      publisher.StatusPending,
			SubmittedAt: &submitted,
			CreatedAt:   base,
		}))
	}

	queue, total, err := repo.ListPendingArticles(ctx, publisher.Page{Number: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, queue, 3)
	assert.Equal(t, "pending-0", queue[0].Slug, "oldest submission first")
	assert.Equal(t, "pending-2", queue[2].Slug)
}

func TestUserOperations(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	user := &publisher.User{ID: uuid.New(), Email: "Reader@Example.com", Role: publisher.RoleUser}
	require.NoError(t, repo.CreateUser(ctx, user))

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "reader@example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := &publisher.User{ID: uuid.New(), Email: "reader@example.com"}
		assert.ErrorIs(t, repo.CreateUser(ctx, dup), publisher.ErrValidation)
	})

	t.Run("token epoch bumps", func(t *testing.T) {
		require.NoError(t, repo.BumpTokenEpoch(ctx, user.ID))
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TokenEpoch)
	})
}

func TestActiveBlockPicksLatest(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	userID := uuid.New()

	old := &publisher.UserBlock{
		ID: uuid.New(), UserID: userID, Type: publisher.BlockTemporary,
		Reason: "first", IsActive: true, BlockedAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, repo.CreateBlock(ctx, old))
	recent := &publisher.UserBlock{
		ID: uuid.New(), UserID: userID, Type: publisher.BlockPermanent,
		Reason: "second", IsActive: true, BlockedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateBlock(ctx, recent))

	got, err := repo.ActiveBlock(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, recent.ID, got.ID)

	got.IsActive = false
	require.NoError(t, repo.UpdateBlock(ctx, got))
	old.IsActive = false
	require.NoError(t, repo.UpdateBlock(ctx, old))

	_, err = repo.ActiveBlock(ctx, userID)
	assert.ErrorIs(t, err, publisher.ErrNotFound)
}
