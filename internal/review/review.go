// Package review drives the reviewed/unreviewed workflow around the change
// store's query contracts.
package review

import (
	"context"

	"github.com/regwatch/regwatch/internal/log"
	"github.com/regwatch/regwatch/internal/store"
)

// Store is the slice of the change store the workflow needs.
type Store interface {
	ListRecentChanges(ctx context.Context) ([]store.ChangeSummary, error)
	GetChangeDetail(ctx context.Context, changeID string) (*store.ChangeDetail, error)
	MarkReviewed(ctx context.Context, changeID string) error
}

// Service composes listing, detail retrieval, and the mark-reviewed side
// effect.
type Service struct {
	store Store
}

// NewService creates a review service backed by the given store.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// Listing is the list view's data: in-window change summaries plus the
// derived unreviewed count.
type Listing struct {
	Changes    []store.ChangeSummary
	Unreviewed int
}

// ListCurrent retrieves all changes inside the reporting window. Zero changes
// is a successful empty listing.
func (s *Service) ListCurrent(ctx context.Context) (*Listing, error) {
	changes, err := s.store.ListRecentChanges(ctx)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Changes: changes}
	for _, c := range changes {
		if !c.Reviewed {
			listing.Unreviewed++
		}
	}
	return listing, nil
}

// ViewDetail fetches a change's full detail and, on success, marks the change
// reviewed. The mark is fire-and-forget: its error is logged and discarded,
// never propagated, so viewing content cannot fail because the audit side
// effect did. Retrieval failures (including store.ErrNotFound) propagate
// unchanged.
func (s *Service) ViewDetail(ctx context.Context, changeID string) (*store.ChangeDetail, error) {
	detail, err := s.store.GetChangeDetail(ctx, changeID)
	if err != nil {
		return nil, err
	}

	if err := s.store.MarkReviewed(ctx, changeID); err != nil {
		log.WithError(err).Errorf("mark reviewed failed for change %s", changeID)
	}

	return detail, nil
}
