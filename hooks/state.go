// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

package hooks

import (
	"sync"

	"github.com/hashicorp/nocloud-seed/cloudinit"
)

// preparedStore tracks the seeds prepared by this handler, keyed by machine
// name.
type preparedStore struct {
	store map[string]*cloudinit.MaterializedSet
	lock  sync.RWMutex
}

func newPreparedStore() *preparedStore {
	return &preparedStore{store: map[string]*cloudinit.MaterializedSet{}}
}

func (ps *preparedStore) Set(name string, set *cloudinit.MaterializedSet) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.store[name] = set
}

func (ps *preparedStore) Get(name string) (*cloudinit.MaterializedSet, bool) {
	ps.lock.RLock()
	defer ps.lock.RUnlock()
	set, ok := ps.store[name]
	return set, ok
}

// Delete forgets the machine and reports whether it was known.
func (ps *preparedStore) Delete(name string) bool {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	_, ok := ps.store[name]
	delete(ps.store, name)
	return ok
}
