package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/tunescout/internal/domain"
	"golang.org/x/time/rate"
)

// Drain submits q and keeps loading pages until the service reports no more,
// maxPages pages have been loaded (0 means no limit), or a page fails. emit
// receives each page's new tracks in order. limiter, if non-nil, paces the
// requests after the first.
func (c *Controller) Drain(ctx context.Context, q Query, maxPages int, limiter *rate.Limiter, emit func([]domain.Track) error) error {
	if !q.Valid() {
		return fmt.Errorf("invalid query: playlist id %d, page size %d", q.PlaylistID, q.PageSize)
	}

	f, ok := c.SubmitQuery(q)
	if !ok {
		return errors.New("query was not started")
	}

	state := c.Await(ctx, f)
	emitted := 0
	pages := 1

	for {
		if state.Err != "" {
			return errors.New(state.Err)
		}

		if len(state.Items) > emitted {
			if err := emit(state.Items[emitted:]); err != nil {
				return err
			}
			emitted = len(state.Items)
		}

		if !state.HasMore || (maxPages > 0 && pages >= maxPages) {
			return nil
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		state = c.LoadSync(ctx, c.Query(), state.Page)
		pages++
	}
}
