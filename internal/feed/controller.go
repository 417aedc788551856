package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/tunescout/internal/domain"
)

// DefaultTimeout bounds a single page request when none is configured.
const DefaultTimeout = 30 * time.Second

// Fetch is the ticket for one in-flight page request. It is issued by Load
// and must be handed back to Complete.
type Fetch struct {
	Query Query
	Page  int

	ctx    context.Context
	cancel context.CancelFunc
}

// Result is the outcome of running a Fetch.
type Result struct {
	Page *domain.RecommendationPage
	Err  error
}

// Controller owns the PageState of the recommendation list and is its only
// writer. Methods are safe for concurrent use, but the guard semantics assume
// a single event loop drives Submit, Load and Complete.
type Controller struct {
	repo    domain.RecommendationRepository
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	state    PageState
	query    Query
	epoch    uint64
	epochCtx context.Context
	cancel   context.CancelFunc
	inflight *Fetch
}

// NewController creates a controller that fetches pages from repo.
// A non-positive timeout uses DefaultTimeout.
func NewController(repo domain.RecommendationRepository, logger *slog.Logger, timeout time.Duration) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		repo:     repo,
		logger:   logger,
		timeout:  timeout,
		state:    newPageState(),
		epochCtx: ctx,
		cancel:   cancel,
	}
}

// State returns a snapshot of the current PageState.
func (c *Controller) State() PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns the query of the current epoch.
func (c *Controller) Query() Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Submit parses raw form input and starts a new query epoch. See SubmitQuery.
func (c *Controller) Submit(rawPlaylistID, rawPageSize string) (*Fetch, bool, error) {
	q, err := ParseQuery(rawPlaylistID, rawPageSize)
	if err != nil {
		return nil, false, err
	}
	f, ok := c.SubmitQuery(q)
	return f, ok, nil
}

// SubmitQuery starts a new epoch for q: the previous epoch's request is
// cancelled, the state is reset, and page 1 is requested.
func (c *Controller) SubmitQuery(q Query) (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	c.epoch++
	c.epochCtx, c.cancel = context.WithCancel(context.Background())

	q.Epoch = c.epoch
	c.query = q
	c.inflight = nil
	c.state = newPageState()

	c.logger.Info("query submitted",
		"playlist_id", q.PlaylistID,
		"page_size", q.PageSize,
		"epoch", q.Epoch,
	)

	return c.load(q, 1)
}

// Load marks the state as loading and returns a Fetch for page. It returns
// false without touching the state if a request is already in flight, if q
// is invalid, or if q belongs to an older epoch.
func (c *Controller) Load(q Query, page int) (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(q, page)
}

// LoadNext requests the next page of the current query if more pages exist
// and nothing is in flight.
func (c *Controller) LoadNext() (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.HasMore || c.state.IsLoading {
		return nil, false
	}
	return c.load(c.query, c.state.Page)
}

// Retry re-requests the current page after a failed attempt.
func (c *Controller) Retry() (*Fetch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Err == "" {
		return nil, false
	}
	return c.load(c.query, c.state.Page)
}

func (c *Controller) load(q Query, page int) (*Fetch, bool) {
	switch {
	case c.state.IsLoading:
		c.logger.Debug("load skipped: request in flight", "page", page, "epoch", q.Epoch)
		return nil, false
	case !q.Valid():
		c.logger.Debug("load skipped: invalid query", "playlist_id", q.PlaylistID, "page_size", q.PageSize)
		return nil, false
	case q.Epoch == 0 || q.Epoch != c.epoch:
		c.logger.Debug("load skipped: stale epoch", "epoch", q.Epoch, "current", c.epoch)
		return nil, false
	case page < 1:
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.epochCtx, c.timeout)
	f := &Fetch{Query: q, Page: page, ctx: ctx, cancel: cancel}

	c.state.IsLoading = true
	c.state.Err = ""
	c.inflight = f

	c.logger.Debug("loading page", "playlist_id", q.PlaylistID, "page", page, "epoch", q.Epoch)
	return f, true
}

// Run performs the network request for f. It does not touch the state and
// may be called from any goroutine. A panic in the repository is returned
// as a failed Result.
func (c *Controller) Run(f *Fetch) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("recommendation fetch panicked", "panic", r, "page", f.Page)
			res = Result{Err: fmt.Errorf("recommendation fetch panicked: %v", r)}
		}
	}()

	page, err := c.repo.Recommend(f.ctx, domain.RecommendationRequest{
		PlaylistID: f.Query.PlaylistID,
		Page:       f.Page,
		PageSize:   f.Query.PageSize,
	})
	if err == nil && page == nil {
		err = domain.ErrMalformedResponse
	}
	return Result{Page: page, Err: err}
}

// Complete merges res into the state and clears the loading flag. Results
// for a Fetch that is no longer current (older epoch, or already completed)
// are discarded and applied is false.
func (c *Controller) Complete(f *Fetch, res Result) (state PageState, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer f.cancel()

	if f != c.inflight {
		c.logger.Debug("discarding stale response",
			"page", f.Page,
			"epoch", f.Query.Epoch,
			"current", c.epoch,
		)
		return c.state, false
	}

	c.finish(f, res)
	return c.state, true
}

// finish applies res; the in-flight flag is released on every path.
func (c *Controller) finish(f *Fetch, res Result) {
	defer c.release()

	if res.Err == nil && res.Page == nil {
		res.Err = domain.ErrMalformedResponse
	}

	if res.Err != nil {
		c.state.Err = domain.UserMessage(res.Err)
		c.logger.Warn("page load failed",
			"playlist_id", f.Query.PlaylistID,
			"page", f.Page,
			"error", res.Err,
		)
		return
	}

	if f.Page == 1 {
		c.state.Items = append([]domain.Track(nil), res.Page.Tracks...)
	} else {
		c.state.Items = append(c.state.Items, res.Page.Tracks...)
	}
	c.state.HasMore = res.Page.HasMore
	c.state.Page = f.Page + 1

	c.logger.Debug("page loaded",
		"playlist_id", f.Query.PlaylistID,
		"page", f.Page,
		"count", len(res.Page.Tracks),
		"total", len(c.state.Items),
		"has_more", res.Page.HasMore,
		"request_id", res.Page.RequestID,
	)
}

func (c *Controller) release() {
	c.state.IsLoading = false
	c.inflight = nil
}

// Await runs f and completes it. Cancelling ctx aborts the request.
func (c *Controller) Await(ctx context.Context, f *Fetch) PageState {
	stop := context.AfterFunc(ctx, f.cancel)
	defer stop()

	state, _ := c.Complete(f, c.Run(f))
	return state
}

// LoadSync is Load followed by Await. If the guard rejects the load the
// current state is returned unchanged.
func (c *Controller) LoadSync(ctx context.Context, q Query, page int) PageState {
	f, ok := c.Load(q, page)
	if !ok {
		return c.State()
	}
	return c.Await(ctx, f)
}

// Close cancels any outstanding request.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
}
