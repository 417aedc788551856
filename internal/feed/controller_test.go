package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/tunescout/internal/domain"
)

// submit starts q and runs page 1 to completion.
func submit(t *testing.T, c *Controller, playlistID, pageSize string) PageState {
	t.Helper()
	f, ok, err := c.Submit(playlistID, pageSize)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !ok {
		t.Fatal("Submit() did not start a fetch")
	}
	return c.Await(context.Background(), f)
}

func TestController_InitialState(t *testing.T) {
	c := NewController(pagedRepo(nil), testLogger(), 0)
	s := c.State()

	if s.Page != 1 || s.HasMore || s.IsLoading || s.Err != "" || len(s.Items) != 0 {
		t.Errorf("initial state = %+v", s)
	}
	if _, ok := c.LoadNext(); ok {
		t.Error("LoadNext() before any submission should be a no-op")
	}
}

func TestController_IdempotentGuard(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{1: page(true, "A")})
	c := NewController(repo, testLogger(), 0)

	f, ok, err := c.Submit("405000", "10")
	if err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	before := c.State()
	if !before.IsLoading {
		t.Fatal("state should be loading after Submit")
	}

	q := c.Query()
	for _, p := range []int{1, 2} {
		if _, ok := c.Load(q, p); ok {
			t.Errorf("Load(q, %d) while loading should be rejected", p)
		}
	}
	if _, ok := c.LoadNext(); ok {
		t.Error("LoadNext() while loading should be rejected")
	}
	if _, ok := c.Retry(); ok {
		t.Error("Retry() while loading should be rejected")
	}

	after := c.State()
	if after.IsLoading != before.IsLoading || after.Page != before.Page ||
		after.HasMore != before.HasMore || after.Err != before.Err || len(after.Items) != len(before.Items) {
		t.Errorf("guarded calls changed state: before %+v, after %+v", before, after)
	}
	if n := repo.callCount(); n != 0 {
		t.Errorf("repo called %d times before Run, want 0", n)
	}

	c.Await(context.Background(), f)
	if n := repo.callCount(); n != 1 {
		t.Errorf("repo called %d times, want 1", n)
	}
}

func TestController_ReplaceOnFirstPage(t *testing.T) {
	calls := 0
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		calls++
		if calls == 1 {
			return page(true, "A", "B"), nil
		}
		return page(true, "C"), nil
	}}
	c := NewController(repo, testLogger(), 0)

	s := submit(t, c, "1", "2")
	if !equalNames(s.Items, "A", "B") {
		t.Fatalf("items = %v, want [A B]", names(s.Items))
	}

	s = c.LoadSync(context.Background(), c.Query(), 1)
	if !equalNames(s.Items, "C") {
		t.Errorf("items = %v, want [C]", names(s.Items))
	}
	if s.Page != 2 {
		t.Errorf("page = %d, want 2", s.Page)
	}
	if !s.HasMore {
		t.Error("hasMore should be true")
	}
}

func TestController_AppendOnSubsequentPage(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{
		1: page(true, "A", "B"),
		2: page(false, "C"),
	})
	c := NewController(repo, testLogger(), 0)

	s := submit(t, c, "1", "2")
	if s.Page != 2 {
		t.Fatalf("page = %d, want 2", s.Page)
	}

	s = c.LoadSync(context.Background(), c.Query(), 2)
	if !equalNames(s.Items, "A", "B", "C") {
		t.Errorf("items = %v, want [A B C]", names(s.Items))
	}
	if s.Page != 3 {
		t.Errorf("page = %d, want 3", s.Page)
	}
	if s.HasMore {
		t.Error("hasMore should be false")
	}
	if s.IsLoading {
		t.Error("isLoading should be false")
	}
}

func TestController_DuplicatesKept(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{
		1: page(true, "A", "A"),
		2: page(false, "A"),
	})
	c := NewController(repo, testLogger(), 0)

	submit(t, c, "1", "2")
	s := c.LoadSync(context.Background(), c.Query(), 2)
	if !equalNames(s.Items, "A", "A", "A") {
		t.Errorf("items = %v, want [A A A]", names(s.Items))
	}
}

func TestController_ErrorPreservesState(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"service detail", &domain.ServiceError{Status: 404, Detail: "playlist not found"}, "playlist not found"},
		{"no detail", &domain.ServiceError{Status: 500}, domain.FallbackErrorMessage},
		{"offline", domain.ErrServiceOffline, domain.ErrServiceOffline.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
				if req.Page == 1 {
					return page(true, "A"), nil
				}
				return nil, tt.err
			}}
			c := NewController(repo, testLogger(), 0)

			submit(t, c, "1", "1")
			s := c.LoadSync(context.Background(), c.Query(), 2)

			if !equalNames(s.Items, "A") {
				t.Errorf("items = %v, want [A]", names(s.Items))
			}
			if s.Page != 2 {
				t.Errorf("page = %d, want 2", s.Page)
			}
			if !s.HasMore {
				t.Error("hasMore should be unchanged (true)")
			}
			if s.IsLoading {
				t.Error("isLoading should be false after failure")
			}
			if s.Err != tt.wantMsg {
				t.Errorf("err = %q, want %q", s.Err, tt.wantMsg)
			}
		})
	}
}

func TestController_ErrorClearedOnNextAttempt(t *testing.T) {
	fail := true
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		if req.Page == 2 && fail {
			return nil, &domain.ServiceError{Status: 503, Detail: "busy"}
		}
		return page(true, "P"+string(rune('0'+req.Page))), nil
	}}
	c := NewController(repo, testLogger(), 0)

	submit(t, c, "1", "1")
	s := c.LoadSync(context.Background(), c.Query(), 2)
	if s.Err != "busy" {
		t.Fatalf("err = %q, want busy", s.Err)
	}

	fail = false
	f, ok := c.Retry()
	if !ok {
		t.Fatal("Retry() should start a fetch after a failure")
	}
	if f.Page != 2 {
		t.Errorf("Retry() page = %d, want the same page 2", f.Page)
	}
	if got := c.State().Err; got != "" {
		t.Errorf("err should be cleared when the attempt starts, got %q", got)
	}

	s = c.Await(context.Background(), f)
	if s.Err != "" || s.Page != 3 || !equalNames(s.Items, "P1", "P2") {
		t.Errorf("state after retry = %+v", s)
	}

	if _, ok := c.Retry(); ok {
		t.Error("Retry() without an error should be a no-op")
	}
}

func TestController_ResetOnSubmission(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{
		1: page(true, "A"),
		2: page(true, "B"),
	})
	c := NewController(repo, testLogger(), 0)

	submit(t, c, "1", "1")
	c.LoadSync(context.Background(), c.Query(), 2)
	if s := c.State(); s.Page != 3 || len(s.Items) != 2 {
		t.Fatalf("setup state = %+v", s)
	}

	f, ok, err := c.Submit("2", "5")
	if err != nil || !ok {
		t.Fatalf("Submit() = %v, %v", ok, err)
	}

	s := c.State()
	if len(s.Items) != 0 || s.Page != 1 || s.HasMore || s.Err != "" {
		t.Errorf("state right after Submit = %+v, want reset", s)
	}
	if !s.IsLoading {
		t.Error("page 1 should be in flight right after Submit")
	}
	if f.Page != 1 || f.Query.PlaylistID != 2 || f.Query.PageSize != 5 {
		t.Errorf("fetch = %+v", f)
	}
	if f.Query.Epoch != 2 {
		t.Errorf("epoch = %d, want 2", f.Query.Epoch)
	}
}

func TestController_SubmitValidationError(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{1: page(true, "A")})
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "1")

	before := c.State()
	if _, ok, err := c.Submit("", "10"); err == nil || ok {
		t.Fatalf("Submit() with empty id = %v, %v", ok, err)
	}

	after := c.State()
	if !equalNames(after.Items, names(before.Items)...) || after.Page != before.Page || after.HasMore != before.HasMore {
		t.Errorf("validation failure mutated state: %+v -> %+v", before, after)
	}
	if c.Query().Epoch != 1 {
		t.Errorf("epoch = %d, validation failure must not start an epoch", c.Query().Epoch)
	}
}

func TestController_LoadRejectsInvalidOrStaleQuery(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{1: page(true, "A")})
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "1")
	current := c.Query()

	tests := []struct {
		name string
		q    Query
		page int
	}{
		{"zero query", Query{}, 1},
		{"missing playlist", Query{PageSize: 1, Epoch: current.Epoch}, 1},
		{"unsubmitted", Query{PlaylistID: 1, PageSize: 1}, 1},
		{"old epoch", Query{PlaylistID: 1, PageSize: 1, Epoch: current.Epoch + 5}, 1},
		{"page zero", current, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := c.Load(tt.q, tt.page); ok {
				t.Error("Load() should be rejected")
			}
			if c.State().IsLoading {
				t.Error("rejected Load() must not set isLoading")
			}
		})
	}
}

func TestController_StaleResponseDiscarded(t *testing.T) {
	repo := pagedRepo(nil)
	c := NewController(repo, testLogger(), 0)

	f1, _, _ := c.Submit("1", "10")
	f2, ok, _ := c.Submit("2", "10")
	if !ok {
		t.Fatal("second Submit() should start page 1 even though the first is outstanding")
	}

	if f1.ctx.Err() == nil {
		t.Error("first epoch's request should be cancelled by the new submission")
	}

	s, applied := c.Complete(f1, Result{Page: page(true, "OLD")})
	if applied {
		t.Error("stale response should not be applied")
	}
	if len(s.Items) != 0 {
		t.Errorf("stale response leaked into state: %v", names(s.Items))
	}
	if !s.IsLoading {
		t.Error("stale response must not clear the new epoch's in-flight flag")
	}

	s, applied = c.Complete(f2, Result{Page: page(false, "NEW")})
	if !applied || !equalNames(s.Items, "NEW") || s.IsLoading {
		t.Errorf("state = %+v", s)
	}

	// Completing the same fetch twice is ignored.
	s, applied = c.Complete(f2, Result{Page: page(false, "NEW")})
	if applied || !equalNames(s.Items, "NEW") {
		t.Errorf("double Complete appended again: %v", names(s.Items))
	}
}

func TestController_SubmitCancelsOutstandingRequest(t *testing.T) {
	repo := blockingRepo()
	c := NewController(repo, testLogger(), time.Minute)

	f1, _, _ := c.Submit("1", "10")
	done := make(chan Result, 1)
	go func() { done <- c.Run(f1) }()

	c.Submit("2", "10")

	select {
	case res := <-done:
		if res.Err == nil {
			t.Fatal("cancelled request should fail")
		}
		s, _ := c.Complete(f1, res)
		if s.Err != "" {
			t.Errorf("cancelled stale request set err = %q", s.Err)
		}
		if !s.IsLoading {
			t.Error("new epoch should still be loading")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("outstanding request was not cancelled")
	}
}

func TestController_Deadline(t *testing.T) {
	c := NewController(blockingRepo(), testLogger(), 20*time.Millisecond)

	s := submit(t, c, "1", "10")
	if s.Err != "request timed out" {
		t.Errorf("err = %q, want request timed out", s.Err)
	}
	if s.IsLoading {
		t.Error("isLoading should be released after a timeout")
	}
}

func TestController_AwaitHonoursCallerContext(t *testing.T) {
	c := NewController(blockingRepo(), testLogger(), time.Minute)

	f, _, _ := c.Submit("1", "10")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := c.Await(ctx, f)
	if s.Err != "request cancelled" {
		t.Errorf("err = %q, want request cancelled", s.Err)
	}
	if s.IsLoading {
		t.Error("isLoading should be released")
	}
}

func TestController_PanicReleasesLoading(t *testing.T) {
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		panic("boom")
	}}
	c := NewController(repo, testLogger(), 0)

	s := submit(t, c, "1", "10")
	if s.IsLoading {
		t.Error("isLoading should be released after a panic")
	}
	if !strings.Contains(s.Err, "panicked") {
		t.Errorf("err = %q", s.Err)
	}
}

func TestController_NilPageIsMalformed(t *testing.T) {
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		return nil, nil
	}}
	c := NewController(repo, testLogger(), 0)

	s := submit(t, c, "1", "10")
	if s.Err != domain.ErrMalformedResponse.Error() {
		t.Errorf("err = %q", s.Err)
	}
}

func TestController_AtEnd(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{1: page(false, "A")})
	c := NewController(repo, testLogger(), 0)

	if c.State().AtEnd() {
		t.Error("empty state is not at end")
	}
	s := submit(t, c, "1", "10")
	if !s.AtEnd() {
		t.Errorf("state %+v should be at end", s)
	}
}
