package display

import (
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-silhouette/params"
)

type slider struct {
	spec params.Spec
	bar  *gocv.Trackbar
	// last is the position the slider had after the previous sync.
	last int
}

// reconcile decides who wins between a slider and the store. A slider that
// moved since the last sync wins and its position is kept. Otherwise the
// slider follows the store position want.
func reconcile(pos, last, want int) (next int, moved bool) {
	if pos != last {
		return pos, true
	}
	return want, false
}

// follower tracks the store's parameter set through a subscription.
type follower struct {
	updates <-chan params.Set
	cancel  func()
	current params.Set
}

func follow(store *params.Store) *follower {
	updates, cancel := store.Subscribe()
	return &follower{updates: updates, cancel: cancel, current: store.Snapshot()}
}

// latest drains pending updates without blocking and returns the newest set.
func (f *follower) latest() params.Set {
	for {
		select {
		case set, ok := <-f.updates:
			if !ok {
				return f.current
			}
			f.current = set
		default:
			return f.current
		}
	}
}
