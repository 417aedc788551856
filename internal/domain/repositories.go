package domain

import (
	"context"
	"time"
)

// RecommendationRepository: Network operations (implemented by the recommend clients)
type RecommendationRepository interface {
	// Recommend returns a single page of recommendations for a playlist.
	// page is 1-based.
	Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationPage, error)
}

// HistoryEntry records one submitted query so the form can offer it again.
type HistoryEntry struct {
	PlaylistID  int       `json:"playlist_id"`
	PageSize    int       `json:"page_size"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// HistoryStore keeps recently submitted queries (BoltDB + memory).
// It stores form input only, never loaded recommendations.
type HistoryStore interface {
	Add(entry HistoryEntry) error

	// Recent returns up to limit entries, newest first, without duplicates
	// of the same playlist/page-size pair.
	Recent(limit int) ([]HistoryEntry, error)

	Clear() error
	Close() error
}
