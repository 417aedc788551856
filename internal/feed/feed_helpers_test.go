package feed

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/mmcdole/tunescout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepo answers from respond and records every request.
type fakeRepo struct {
	mu      sync.Mutex
	calls   []domain.RecommendationRequest
	respond func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error)
}

func (r *fakeRepo) Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	respond := r.respond
	r.mu.Unlock()
	return respond(ctx, req)
}

func (r *fakeRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// pagedRepo serves fixed pages keyed by page number.
func pagedRepo(pages map[int]*domain.RecommendationPage) *fakeRepo {
	return &fakeRepo{
		respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
			if p, ok := pages[req.Page]; ok {
				return p, nil
			}
			return nil, &domain.ServiceError{Status: 404, Detail: "page out of range"}
		},
	}
}

// blockingRepo waits until its context ends.
func blockingRepo() *fakeRepo {
	return &fakeRepo{
		respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

func tracks(names ...string) []domain.Track {
	out := make([]domain.Track, len(names))
	for i, n := range names {
		out[i] = domain.Track{TrackName: n, Artists: "artist " + n}
	}
	return out
}

func page(hasMore bool, names ...string) *domain.RecommendationPage {
	return &domain.RecommendationPage{Tracks: tracks(names...), HasMore: hasMore}
}

func names(items []domain.Track) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.TrackName
	}
	return out
}

func equalNames(items []domain.Track, want ...string) bool {
	got := names(items)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// rows is a Viewport showing rows [from, to).
type rows struct{ from, to int }

func (r rows) IsVisible(i int) bool { return i >= r.from && i < r.to }

var everything = rows{0, 1 << 30}
