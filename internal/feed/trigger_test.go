package feed

import (
	"context"
	"testing"

	"github.com/mmcdole/tunescout/internal/domain"
)

func TestTrigger_RebindReleasesPrevious(t *testing.T) {
	var tr Trigger
	key := BindKey{Epoch: 1, Page: 2, HasMore: true}

	tr.Rebind(4, key)
	first := tr.current

	tr.Rebind(9, BindKey{Epoch: 1, Page: 3, HasMore: true})
	if !first.released {
		t.Error("previous observation should be released before a new one is bound")
	}
	if tr.Target() != 9 {
		t.Errorf("target = %d, want 9", tr.Target())
	}

	bound, released := tr.Counts()
	if bound != 2 || released != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", bound, released)
	}
	if bound-released != 1 {
		t.Error("exactly one observation should be active")
	}
}

func TestTrigger_RebindSameKeyKeepsObservation(t *testing.T) {
	var tr Trigger
	key := BindKey{Epoch: 1, Page: 2, HasMore: true}

	tr.Rebind(4, key)
	first := tr.current
	tr.Rebind(4, key)

	if tr.current != first {
		t.Error("unchanged target and key should keep the observation")
	}
	if bound, _ := tr.Counts(); bound != 1 {
		t.Errorf("bound = %d, want 1", bound)
	}
}

func TestTrigger_NegativeTargetIsInert(t *testing.T) {
	var tr Trigger
	tr.Rebind(3, BindKey{Epoch: 1, HasMore: true})
	tr.Rebind(-1, BindKey{Epoch: 2, Page: 1})

	if tr.Active() {
		t.Error("trigger should be inert for an empty list")
	}
	if tr.Target() != -1 {
		t.Errorf("target = %d, want -1", tr.Target())
	}
	called := false
	tr.Check(everything, func() bool { called = true; return true })
	if called {
		t.Error("inert trigger must not load")
	}
}

func TestTrigger_Guard(t *testing.T) {
	tests := []struct {
		name      string
		key       BindKey
		vp        Viewport
		wantFired bool
	}{
		{"visible and more", BindKey{Epoch: 1, HasMore: true}, everything, true},
		{"no more pages", BindKey{Epoch: 1, HasMore: false}, everything, false},
		{"loading", BindKey{Epoch: 1, HasMore: true, IsLoading: true}, everything, false},
		{"off screen", BindKey{Epoch: 1, HasMore: true}, rows{0, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Trigger
			tr.Rebind(7, tt.key)

			called := 0
			tr.Check(tt.vp, func() bool { called++; return true })

			if (called == 1) != tt.wantFired {
				t.Errorf("load called %d times, want fired=%v", called, tt.wantFired)
			}
		})
	}
}

func TestObserve_FiresOncePerVisibility(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{
		1: page(true, "A", "B"),
		2: page(true, "C", "D"),
	})
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "2")

	var tr Trigger
	f, ok := c.Observe(&tr, everything)
	if !ok {
		t.Fatal("last row visible with more pages should fire")
	}
	if f.Page != 2 {
		t.Errorf("fetch page = %d, want 2", f.Page)
	}

	// The row stays visible while page 2 is in flight.
	for i := 0; i < 5; i++ {
		if _, ok := c.Observe(&tr, everything); ok {
			t.Fatalf("check %d fired while loading", i)
		}
	}

	c.Await(context.Background(), f)
	if n := repo.callCount(); n != 2 {
		t.Errorf("repo called %d times, want 2 (page 1 and page 2)", n)
	}
	if tr.Target() != 1 {
		t.Errorf("target = %d, want 1 before the next frame", tr.Target())
	}

	// Next frame: rebinding moves to the new last row.
	if _, ok := c.Observe(&tr, rows{0, 2}); ok {
		t.Error("new last row is off screen; nothing should fire")
	}
	if tr.Target() != 3 {
		t.Errorf("target = %d, want 3", tr.Target())
	}
}

func TestObserve_TerminalState(t *testing.T) {
	repo := pagedRepo(map[int]*domain.RecommendationPage{1: page(false, "A", "B")})
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "10")

	var tr Trigger
	for i := 0; i < 3; i++ {
		if _, ok := c.Observe(&tr, everything); ok {
			t.Fatal("no load should start once hasMore is false")
		}
	}
	if n := repo.callCount(); n != 1 {
		t.Errorf("repo called %d times, want 1", n)
	}
	if !c.State().AtEnd() {
		t.Error("state should be at end")
	}
}

func TestTrigger_FailureWaitsForRowToLeave(t *testing.T) {
	var tr Trigger
	tr.Rebind(7, BindKey{Epoch: 1, Page: 2, HasMore: true, Failed: true})

	called := 0
	load := func() bool { called++; return true }

	for i := 0; i < 3; i++ {
		tr.Check(everything, load)
	}
	if called != 0 {
		t.Fatalf("load called %d times while the failed row stayed visible", called)
	}

	tr.Check(rows{0, 5}, load)
	if called != 0 {
		t.Fatal("off-screen check must not load")
	}

	tr.Check(everything, load)
	if called != 1 {
		t.Errorf("load called %d times after the row came back, want 1", called)
	}
}

func TestObserve_ErrorThenScrollRetries(t *testing.T) {
	fail := true
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		if req.Page == 2 && fail {
			return nil, &domain.ServiceError{Status: 404, Detail: "playlist not found"}
		}
		return page(true, "X"), nil
	}}
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "1")

	var tr Trigger
	f, _ := c.Observe(&tr, everything)
	s := c.Await(context.Background(), f)
	if s.Err != "playlist not found" || s.Page != 2 {
		t.Fatalf("state after failure = %+v", s)
	}

	// The last row is still on screen; the failure must not be re-requested
	// on every frame.
	for i := 0; i < 5; i++ {
		if _, ok := c.Observe(&tr, everything); ok {
			t.Fatalf("frame %d re-requested the failed page", i)
		}
	}
	if n := repo.callCount(); n != 2 {
		t.Fatalf("repo called %d times, want 2", n)
	}
	if got := c.State().Err; got != "playlist not found" {
		t.Errorf("err = %q, should stay visible until the next attempt", got)
	}

	// Scroll away, then back.
	fail = false
	if _, ok := c.Observe(&tr, rows{5, 10}); ok {
		t.Fatal("off-screen row should not load")
	}
	f, ok := c.Observe(&tr, everything)
	if !ok || f.Page != 2 {
		t.Fatalf("row re-entering view should re-attempt page 2, got %v %+v", ok, f)
	}
	s = c.Await(context.Background(), f)
	if s.Err != "" || s.Page != 3 || len(s.Items) != 2 {
		t.Errorf("state after re-attempt = %+v", s)
	}
}

func TestObserve_RetryAfterFailure(t *testing.T) {
	repo := &fakeRepo{respond: func(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationPage, error) {
		if req.Page == 2 {
			return nil, &domain.ServiceError{Status: 500}
		}
		return page(true, "X"), nil
	}}
	c := NewController(repo, testLogger(), 0)
	submit(t, c, "1", "1")

	var tr Trigger
	f, _ := c.Observe(&tr, everything)
	c.Await(context.Background(), f)

	f, ok := c.Retry()
	if !ok || f.Page != 2 {
		t.Fatalf("Retry() = %v %+v, want page 2", ok, f)
	}
	if _, ok := c.Observe(&tr, everything); ok {
		t.Error("observe must not start a second request while the retry is in flight")
	}
	s := c.Await(context.Background(), f)
	if s.Err != domain.FallbackErrorMessage {
		t.Fatalf("err = %q", s.Err)
	}

	// The failed retry latches again.
	if _, ok := c.Observe(&tr, everything); ok {
		t.Error("failed retry should not loop")
	}
	if n := repo.callCount(); n != 3 {
		t.Errorf("repo called %d times, want 3", n)
	}
}
