package feed

// Viewport reports whether a row of the rendered list is on screen.
type Viewport interface {
	IsVisible(index int) bool
}

// BindKey is the set of values a Trigger binding depends on. A change in any
// of them forces a rebind.
type BindKey struct {
	Epoch     uint64
	Page      int
	HasMore   bool
	IsLoading bool
	Failed    bool
}

// KeyFor returns the binding key for a query and its state.
func KeyFor(q Query, s PageState) BindKey {
	return BindKey{
		Epoch:     q.Epoch,
		Page:      s.Page,
		HasMore:   s.HasMore,
		IsLoading: s.IsLoading,
		Failed:    s.Err != "",
	}
}

// observation is a single binding to the row at target. An observation
// bound after a failed load starts disarmed and arms once the row has been
// seen off screen.
type observation struct {
	target   int
	key      BindKey
	armed    bool
	released bool
}

// Trigger watches the last loaded row and fires a load when it is visible.
// At most one observation is active at a time.
//
// Checking is level-triggered: every Check while the row stays visible calls
// load again, and the HasMore/IsLoading guard keeps that to one request at a
// time. After a failure the page is only re-attempted once the row has left
// the viewport and come back, or through Controller.Retry.
type Trigger struct {
	current  *observation
	bound    int
	released int
}

// Rebind moves the observation to target under key. The previous observation
// is released first. A negative target leaves the trigger inert.
func (t *Trigger) Rebind(target int, key BindKey) {
	if t.current != nil && t.current.target == target && t.current.key == key {
		return
	}

	t.Release()
	if target < 0 {
		return
	}

	t.current = &observation{target: target, key: key, armed: !key.Failed}
	t.bound++
}

// Release drops the active observation, if any.
func (t *Trigger) Release() {
	if t.current == nil {
		return
	}
	t.current.released = true
	t.current = nil
	t.released++
}

// Active reports whether an observation is bound.
func (t *Trigger) Active() bool {
	return t.current != nil
}

// Target returns the observed row, or -1 when inert.
func (t *Trigger) Target() int {
	if t.current == nil {
		return -1
	}
	return t.current.target
}

// Counts returns how many observations were bound and released in total.
func (t *Trigger) Counts() (bound, released int) {
	return t.bound, t.released
}

// Check calls load if the observed row is visible and the binding's guard
// allows it. It returns whatever load returned, or false if load was not
// called.
func (t *Trigger) Check(vp Viewport, load func() bool) bool {
	obs := t.current
	if obs == nil || obs.released {
		return false
	}
	if !obs.armed {
		if !vp.IsVisible(obs.target) {
			obs.armed = true
		}
		return false
	}
	if !obs.key.HasMore || obs.key.IsLoading {
		return false
	}
	if !vp.IsVisible(obs.target) {
		return false
	}
	return load()
}

// Observe rebinds t to the last loaded item of the current state and checks
// it against vp. It returns the Fetch for the next page when one was started.
func (c *Controller) Observe(t *Trigger, vp Viewport) (*Fetch, bool) {
	t.Rebind(c.State().LastIndex(), KeyFor(c.Query(), c.State()))

	var f *Fetch
	fired := t.Check(vp, func() bool {
		var ok bool
		f, ok = c.LoadNext()
		return ok
	})
	return f, fired
}
