package publisher

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Moderation state machine operations. Every transition is guarded twice:
// the static transition table, and a conditional write in the repository so
// concurrent moderators racing on the same article produce exactly one
// winner. The losing transition sees ErrInvalidTransition and no writes.

func (s *service) ListPendingArticles(ctx context.Context, actor *User, page Page) ([]*Article, int, error) {
	if actor == nil || !actor.CanModerate() {
		return nil, 0, ErrUnauthorized
	}
	articles, total, err := s.repo.ListPendingArticles(ctx, page)
	if err != nil {
		return nil, 0, err
	}
	if err := s.loadAllAssociations(ctx, articles); err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

func (s *service) ApproveArticle(ctx context.Context, actor *User, req ApproveRequest) (*Article, error) {
	target := StatusApproved
	action := ActionApproved
	if req.PublishImmediately {
		target = StatusPublished
		action = ActionPublished
	}
	return s.moderate(ctx, actor, req.ArticleID, target, action, req.Comment, "")
}

func (s *service) RejectArticle(ctx context.Context, actor *User, req RejectRequest) (*Article, error) {
	if req.Reason == "" {
		return nil, NewValidationError("reason", "rejection reason is required")
	}
	return s.moderate(ctx, actor, req.ArticleID, StatusRejected, ActionRejected, req.Reason, req.Reason)
}

func (s *service) RequestChanges(ctx context.Context, actor *User, req RequestChangesRequest) (*Article, error) {
	if req.Feedback == "" {
		return nil, NewValidationError("feedback", "change feedback is required")
	}
	return s.moderate(ctx, actor, req.ArticleID, StatusChangesRequested, ActionChangesRequested, req.Feedback, req.Feedback)
}

func (s *service) PublishArticle(ctx context.Context, actor *User, articleID uuid.UUID) (*Article, error) {
	return s.moderate(ctx, actor, articleID, StatusPublished, ActionPublished, "", "")
}

func (s *service) UnpublishArticle(ctx context.Context, actor *User, req UnpublishRequest) (*Article, error) {
	if req.Reason == "" {
		return nil, NewValidationError("reason", "unpublish reason is required")
	}
	return s.moderate(ctx, actor, req.ArticleID, StatusApproved, ActionUnpublished, req.Reason, req.Reason)
}

func (s *service) ModerationLog(ctx context.Context, actor *User, articleID uuid.UUID) ([]*ModerationLogEntry, error) {
	if actor == nil || !actor.CanModerate() {
		return nil, ErrUnauthorized
	}
	if _, err := s.repo.GetArticle(ctx, articleID); err != nil {
		return nil, err
	}
	return s.repo.ListModerationLog(ctx, articleID)
}

// moderate performs one guarded status transition: capability check, table
// check, conditional update, and an audit-log append, all in one transaction.
func (s *service) moderate(ctx context.Context, actor *User, articleID uuid.UUID, target ArticleStatus, action ModerationAction, comment, notes string) (*Article, error) {
	if actor == nil || !actor.CanModerate() {
		return nil, ErrUnauthorized
	}

	article, err := s.repo.GetArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	from := article.Status
	if err := checkTransition(from, target); err != nil {
		return nil, &ArticleError{ArticleID: articleID, Op: string(action), Err: err}
	}
	// The published-to-approved edge belongs to unpublish alone; approving an
	// already published article is a conflict, not a silent unpublish.
	if action == ActionApproved && from == StatusPublished {
		return nil, &ArticleError{ArticleID: articleID, Op: string(action), Err: ErrInvalidTransition}
	}

	now := time.Now().UTC()
	article.Status = target
	article.ModeratedBy = &actor.ID
	article.ModeratedAt = &now
	if notes != "" {
		article.ModerationNotes = notes
	}
	if target == StatusPublished && article.PublishedAt == nil {
		article.PublishedAt = &now
	}
	// Unpublish keeps PublishedAt as a historical fact.
	article.UpdatedAt = now

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.TransitionArticle(ctx, article, from); err != nil {
			return err
		}
		return tx.AppendModerationLog(ctx, &ModerationLogEntry{
			ID:             uuid.New(),
			ArticleID:      articleID,
			ModeratorID:    actor.ID,
			Action:         action,
			Comment:        comment,
			PreviousStatus: from,
			NewStatus:      target,
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, &ArticleError{ArticleID: articleID, Op: string(action), Err: err}
	}

	return s.loadAssociations(ctx, article)
}
