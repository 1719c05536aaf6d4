package models

import (
	"sync"
)

// UserLocks hands out one mutex per user so trades for different users
// never contend while trades for the same user are serialized.
// Uses per-user locks instead of a global lock.
type UserLocks struct {
	userLocks map[int64]*sync.Mutex // Map of user_id → mutex
	mapMutex  sync.RWMutex          // Protects the map itself
}

// NewUserLocks creates an empty lock table.
func NewUserLocks() *UserLocks {
	return &UserLocks{
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// Lock locks the ledger for a specific user.
func (ul *UserLocks) Lock(userID int64) {
	// First, get or create the mutex for this user
	ul.mapMutex.Lock()

	if ul.userLocks[userID] == nil {
		ul.userLocks[userID] = &sync.Mutex{}
	}

	userMutex := ul.userLocks[userID]
	ul.mapMutex.Unlock()

	// Now lock that user's mutex
	userMutex.Lock()
}

// Unlock unlocks the ledger for a specific user.
func (ul *UserLocks) Unlock(userID int64) {
	ul.mapMutex.RLock()
	userMutex := ul.userLocks[userID]
	ul.mapMutex.RUnlock()

	if userMutex != nil {
		userMutex.Unlock()
	}
}
