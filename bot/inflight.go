package bot

import "sync"

//inflightArena tracks which keys currently have an update task running. It is the sole
//synchronization primitive of the starboard coordinator: at most one update is ever in
//flight per key, and triggers arriving while one runs are coalesced into a single
//rerun signal instead of spawning concurrent writes.
type inflightArena struct {
	mu    sync.Mutex
	slots map[string]*inflightSlot
}

type inflightSlot struct {
	pending bool
}

func newInflightArena() *inflightArena {
	return &inflightArena{
		slots: make(map[string]*inflightSlot),
	}
}

//acquire attempts to take ownership of the slot for key. If another task already owns
//it, the slot is flagged for one rerun after the owner finishes and acquire returns
//false.
func (a *inflightArena) acquire(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if slot, ok := a.slots[key]; ok {
		slot.pending = true
		return false
	}
	a.slots[key] = &inflightSlot{}
	return true
}

//release ends one unit of work for key. If a trigger arrived while the work ran, the
//caller keeps ownership and must run again; otherwise the slot is freed. Owners must
//call release on every exit path so a failed update cannot wedge the key.
func (a *inflightArena) release(key string) (rerun bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot, ok := a.slots[key]
	if !ok {
		return false
	}
	if slot.pending {
		slot.pending = false
		return true
	}
	delete(a.slots, key)
	return false
}

//abandon unconditionally frees the slot for key, discarding any pending rerun. Used
//when an owner dies on a path that cannot continue the rerun loop.
func (a *inflightArena) abandon(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.slots, key)
}
