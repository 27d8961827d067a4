package publisher

import "fmt"

// transitions maps each status to the set of statuses it may legally move to.
// submit: draft/rejected/changes_requested -> pending (owner action);
// approve: pending -> approved, or straight to published with the
// publish-immediately flag; publish: approved -> published;
// unpublish: published -> approved.
var transitions = map[ArticleStatus][]ArticleStatus{
	StatusDraft:            {StatusPending},
	StatusPending:          {StatusApproved, StatusRejected, StatusChangesRequested, StatusPublished},
	StatusApproved:         {StatusPublished},
	StatusRejected:         {StatusPending},
	StatusChangesRequested: {StatusPending},
	StatusPublished:        {StatusApproved},
}

// ValidStatus reports whether s is a member of the article status set.
func ValidStatus(s ArticleStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an article may move from one status to
// another along a legal edge.
func CanTransition(from, to ArticleStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns ErrInvalidTransition (wrapped with both statuses)
// when the edge is not legal. The article and its audit trail must be left
// untouched by callers on failure.
func checkTransition(from, to ArticleStatus) error {
	if !ValidStatus(from) || !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status in %s -> %s", ErrInvalidTransition, from, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// canSubmit checks the owner-side submit precondition.
func canSubmit(status ArticleStatus) error {
	switch status {
	case StatusDraft, StatusRejected, StatusChangesRequested:
		return nil
	case StatusPending:
		return fmt.Errorf("%w: article is already awaiting review", ErrNotSubmittable)
	case StatusApproved, StatusPublished:
		return fmt.Errorf("%w: article has already passed review (status: %s)", ErrNotSubmittable, status)
	default:
		return fmt.Errorf("%w: unknown status %s", ErrNotSubmittable, status)
	}
}

// canEdit checks the owner-side edit precondition.
func canEdit(status ArticleStatus) error {
	switch status {
	case StatusDraft, StatusRejected, StatusChangesRequested:
		return nil
	default:
		return fmt.Errorf("%w: article is locked in status %s", ErrEditNotPermitted, status)
	}
}
