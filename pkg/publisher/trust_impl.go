package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Trust gate operations. Blocks are the hard gate consulted at login and on
// every authenticated request; warnings are advisory and never block access.

func (s *service) IsBlocked(ctx context.Context, userID uuid.UUID) (bool, error) {
	block, err := s.repo.ActiveBlock(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return block.ActiveAt(time.Now().UTC()), nil
}

func (s *service) BlockUser(ctx context.Context, actor *User, req BlockUserRequest) error {
	if actor == nil || !actor.CanModerate() {
		return ErrUnauthorized
	}
	if req.Reason == "" {
		return NewValidationError("reason", "block reason is required")
	}
	if req.Type != BlockTemporary && req.Type != BlockPermanent {
		return NewValidationError("block_type", "block type must be temporary or permanent")
	}
	if req.Type == BlockTemporary && req.DurationDays <= 0 {
		return NewValidationError("duration_days", "temporary blocks require a positive duration")
	}

	target, err := s.repo.GetUser(ctx, req.UserID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return fmt.Errorf("%w: administrators cannot be blocked", ErrUnauthorized)
	}
	if target.ID == actor.ID {
		return NewValidationError("user_id", "you cannot block yourself")
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if req.Type == BlockTemporary {
		t := now.AddDate(0, 0, req.DurationDays)
		expiresAt = &t
	}

	return s.repo.WithTx(ctx, func(tx Repository) error {
		// Supersede any existing active block rather than stacking.
		if existing, err := tx.ActiveBlock(ctx, req.UserID); err == nil {
			existing.IsActive = false
			existing.UnblockedBy = &actor.ID
			existing.UnblockedAt = &now
			existing.UnblockReason = "superseded by new block"
			if err := tx.UpdateBlock(ctx, existing); err != nil {
				return err
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if err := tx.CreateBlock(ctx, &UserBlock{
			ID:        uuid.New(),
			UserID:    req.UserID,
			BlockedBy: actor.ID,
			Type:      req.Type,
			Reason:    req.Reason,
			BlockedAt: now,
			ExpiresAt: expiresAt,
			IsActive:  true,
		}); err != nil {
			return err
		}

		// Revoke every outstanding session for the blocked user.
		return tx.BumpTokenEpoch(ctx, req.UserID)
	})
}

func (s *service) UnblockUser(ctx context.Context, actor *User, req UnblockUserRequest) error {
	if actor == nil || !actor.CanModerate() {
		return ErrUnauthorized
	}

	block, err := s.repo.ActiveBlock(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return NewValidationError("user_id", "user is not blocked")
		}
		return err
	}

	now := time.Now().UTC()
	block.IsActive = false
	block.UnblockedBy = &actor.ID
	block.UnblockedAt = &now
	block.UnblockReason = req.Reason
	return s.repo.UpdateBlock(ctx, block)
}

func (s *service) WarnUser(ctx context.Context, actor *User, req WarnUserRequest) (*UserWarning, error) {
	if actor == nil || !actor.CanModerate() {
		return nil, ErrUnauthorized
	}
	if req.Title == "" || req.Reason == "" {
		return nil, NewValidationError("title", "warning title and reason are required")
	}
	switch req.Severity {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
	default:
		return nil, NewValidationError("severity", "unknown severity")
	}

	if _, err := s.repo.GetUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := now.AddDate(0, 0, req.ExpiresInDays)
		expiresAt = &t
	}

	warning := &UserWarning{
		ID:        uuid.New(),
		UserID:    req.UserID,
		IssuedBy:  actor.ID,
		Severity:  req.Severity,
		Title:     req.Title,
		Reason:    req.Reason,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.repo.CreateWarning(ctx, warning); err != nil {
		return nil, err
	}
	return warning, nil
}

func (s *service) ActiveWarnings(ctx context.Context, userID uuid.UUID) ([]*UserWarning, error) {
	const pageSize = 100
	now := time.Now().UTC()

	var active []*UserWarning
	for number := 1; ; number++ {
		warnings, total, err := s.repo.ListWarnings(ctx, userID, Page{Number: number, Size: pageSize})
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			if w.ActiveAt(now) {
				active = append(active, w)
			}
		}
		if len(warnings) == 0 || number*pageSize >= total {
			break
		}
	}
	return active, nil
}

func (s *service) UnreadWarningCount(ctx context.Context, userID uuid.UUID) (int, error) {
	warnings, err := s.ActiveWarnings(ctx, userID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, w := range warnings {
		if !w.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *service) ListWarnings(ctx context.Context, actor *User, userID uuid.UUID, page Page) ([]*UserWarning, int, error) {
	if actor == nil {
		return nil, 0, ErrUnauthorized
	}
	if actor.ID != userID && !actor.CanModerate() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.ListWarnings(ctx, userID, page)
}

func (s *service) MarkWarningRead(ctx context.Context, actor *User, warningID uuid.UUID) error {
	if actor == nil {
		return ErrUnauthorized
	}
	warning, err := s.repo.GetWarning(ctx, warningID)
	if err != nil {
		return err
	}
	if warning.UserID != actor.ID {
		return ErrUnauthorized
	}
	if warning.IsRead {
		return nil
	}
	warning.IsRead = true
	return s.repo.UpdateWarning(ctx, warning)
}
