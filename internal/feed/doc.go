// Package feed holds the incremental list-loading controller behind the
// recommendation screen.
//
// A Controller owns one PageState. Submit starts a new query epoch, resets
// the state and requests page 1. Load requests a further page and is a no-op
// while another request is in flight. A Trigger watches the last loaded row
// and asks for the next page when that row is on screen.
//
// Loading is split in two halves so a UI event loop can stay single-threaded:
//
//	fetch, ok := ctrl.Load(q, page) // synchronous: guard + mark loading
//	res := ctrl.Run(fetch)           // blocking network call, no shared state
//	state, applied := ctrl.Complete(fetch, res)
//
// Responses from an older epoch are discarded in Complete, and submitting a
// new query cancels the request that is still outstanding.
package feed
