package storage

import (
	"context"

	"github.com/mcoot/warduel/internal/model"
)

// Storage defines the interface for duel result persistence
type Storage interface {
	// SaveSummary records a completed game
	SaveSummary(ctx context.Context, summary *model.DuelSummary) error
	// ListSummaries returns up to limit summaries, newest first
	ListSummaries(ctx context.Context, limit int) ([]*model.DuelSummary, error)
	// GetSummariesForSession returns every recorded round of a session, oldest first
	GetSummariesForSession(ctx context.Context, id model.SessionID) ([]*model.DuelSummary, error)
	// CountSummaries returns the number of games recorded since startup
	CountSummaries(ctx context.Context) (int, error)
}
