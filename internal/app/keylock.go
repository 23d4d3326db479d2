package app

import (
	"hash/fnv"
	"sync"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
)

const lockShards = 64

// identityLocks serializes work per identity. Identities that share a shard
// also wait on each other.
type identityLocks struct {
	shards [lockShards]sync.Mutex
}

// lock blocks until id's shard is free and returns the matching unlock.
func (l *identityLocks) lock(id domain.Identity) func() {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	m := &l.shards[h.Sum32()%lockShards]
	m.Lock()
	return m.Unlock
}
