package game

import (
	"sync"
	"time"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/model"
)

// timerSet holds at most one pending delayed task per key. Replacing or
// cancelling a task bumps its generation so a callback already in flight
// sees it has been superseded and does nothing.
type timerSet struct {
	clock clock.Clock

	mu      sync.Mutex
	gen     uint64
	entries map[string]*timerEntry
}

type timerEntry struct {
	timer clock.Timer
	gen   uint64
}

func newTimerSet(clk clock.Clock) *timerSet {
	return &timerSet{
		clock:   clk,
		entries: make(map[string]*timerEntry),
	}
}

func gameTimerKey(id model.GameID) string {
	return "game:" + string(id)
}

func countdownTimerKey(id model.LobbyID) string {
	return "countdown:" + string(id)
}

// schedule runs f after d, replacing any task pending under key
func (t *timerSet) schedule(key string, d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.entries[key]; ok {
		old.timer.Stop()
	}
	t.gen++
	gen := t.gen
	entry := &timerEntry{gen: gen}
	t.entries[key] = entry
	entry.timer = t.clock.AfterFunc(d, func() {
		if t.claim(key, gen) {
			f()
		}
	})
}

// claim removes the entry if gen is still current for key
func (t *timerSet) claim(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[key]
	if !ok || entry.gen != gen {
		return false
	}
	delete(t.entries, key)
	return true
}

func (t *timerSet) cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		delete(t.entries, key)
	}
}

func (t *timerSet) cancelAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.entries)
	for key, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, key)
	}
	return n
}

func (t *timerSet) pending(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[key]
	return ok
}
