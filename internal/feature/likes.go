package feature

import (
	"context"

	"docent/internal/coordinator"
	"docent/internal/events"
	"docent/internal/lifecycle"
)

type likeKey struct {
	kind events.TargetKind
	id   int64
}

// LikeCache is the like flags a screen is showing. It converges on
// LikeStatusChanged no matter which screen toggled the like.
type LikeCache struct {
	scope *lifecycle.Scope
	flags map[likeKey]bool
	err   error
}

// NewLikeCache creates a cache bound to scope.
func NewLikeCache(scope *lifecycle.Scope, sub events.Subscriber) *LikeCache {
	c := &LikeCache{scope: scope, flags: make(map[likeKey]bool)}
	scope.Track(events.On(sub, func(e events.LikeStatusChanged) error {
		c.flags[likeKey{e.TargetKind, e.TargetID}] = e.IsLiked
		return nil
	}))
	return c
}

// Seed records a flag read from the server when the screen loaded.
func (c *LikeCache) Seed(kind events.TargetKind, id int64, liked bool) {
	c.flags[likeKey{kind, id}] = liked
}

// Load reads the stored flags of ids in the background and seeds the cache
// with them on the UI goroutine. A flag an event set meanwhile is newer and
// is kept.
func (c *LikeCache) Load(ctx context.Context, sched coordinator.Scheduler, src LikeSource, kind events.TargetKind, ids ...int64) {
	if src == nil || len(ids) == 0 || !c.scope.Alive() {
		return
	}
	if sched == nil {
		sched = coordinator.Inline{}
	}
	apply := lifecycle.Guard2(c.scope, func(flags map[int64]bool, err error) {
		c.err = err
		for id, liked := range flags {
			key := likeKey{kind, id}
			if _, known := c.flags[key]; !known {
				c.flags[key] = liked
			}
		}
	})
	sched.Background(func() {
		flags := make(map[int64]bool, len(ids))
		var err error
		for _, id := range ids {
			liked, lerr := src.IsLiked(ctx, kind, id)
			if lerr != nil {
				err = lerr
				continue
			}
			flags[id] = liked
		}
		sched.Main(func() { apply(flags, err) })
	})
}

// Err returns the last error Load hit, if any.
func (c *LikeCache) Err() error { return c.err }

// Liked returns the cached flag and whether one is known.
func (c *LikeCache) Liked(kind events.TargetKind, id int64) (liked, known bool) {
	liked, known = c.flags[likeKey{kind, id}]
	return liked, known
}

// Len is the number of cached flags.
func (c *LikeCache) Len() int { return len(c.flags) }
