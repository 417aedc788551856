package recommend

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mmcdole/tunescout/internal/domain"
)

type stubRepo struct {
	calls int
	err   error
	page  *domain.RecommendationPage
}

func (s *stubRepo) Recommend(ctx context.Context, r domain.RecommendationRequest) (*domain.RecommendationPage, error) {
	s.calls++
	return s.page, s.err
}

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	repo := &stubRepo{err: &domain.ServiceError{Status: http.StatusInternalServerError}}
	client := NewBreakerClient(repo, BreakerSettings{MaxFailures: 3, Cooldown: time.Minute}, testLogger())

	req := domain.RecommendationRequest{PlaylistID: 1, Page: 1, PageSize: 10}
	for i := 0; i < 3; i++ {
		if _, err := client.Recommend(context.Background(), req); err == nil {
			t.Fatal("expected failure")
		}
	}

	if client.State() != "open" {
		t.Fatalf("State() = %q, want open", client.State())
	}

	_, err := client.Recommend(context.Background(), req)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
	if repo.calls != 3 {
		t.Errorf("repo called %d times, want 3 (open circuit must not call through)", repo.calls)
	}
}

func TestBreakerClient_ClientErrorsDoNotTrip(t *testing.T) {
	repo := &stubRepo{err: &domain.ServiceError{Status: http.StatusNotFound, Detail: "playlist not found"}}
	client := NewBreakerClient(repo, BreakerSettings{MaxFailures: 2, Cooldown: time.Minute}, testLogger())

	req := domain.RecommendationRequest{PlaylistID: 1, Page: 1, PageSize: 10}
	for i := 0; i < 5; i++ {
		_, err := client.Recommend(context.Background(), req)
		if got := domain.UserMessage(err); got != "playlist not found" {
			t.Fatalf("UserMessage() = %q", got)
		}
	}

	if client.State() != "closed" {
		t.Errorf("State() = %q, want closed", client.State())
	}
	if repo.calls != 5 {
		t.Errorf("repo called %d times, want 5", repo.calls)
	}
}

func TestBreakerClient_PassesThroughSuccess(t *testing.T) {
	want := &domain.RecommendationPage{Tracks: []domain.Track{{TrackName: "A"}}, HasMore: true}
	client := NewBreakerClient(&stubRepo{page: want}, BreakerSettings{}, testLogger())

	got, err := client.Recommend(context.Background(), domain.RecommendationRequest{PlaylistID: 1, Page: 1, PageSize: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got != want {
		t.Errorf("Recommend() = %p, want %p", got, want)
	}
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"cancelled", context.Canceled, true},
		{"4xx", &domain.ServiceError{Status: 404}, true},
		{"5xx", &domain.ServiceError{Status: 503}, false},
		{"offline", domain.ErrServiceOffline, false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSuccessful(tt.err); got != tt.want {
				t.Errorf("isSuccessful(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
