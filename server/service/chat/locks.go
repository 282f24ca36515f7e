package chat

import (
	"fmt"
	"sync"
)

// conversationLocks serializes turns per (user, conversation). Without it,
// two concurrent turns on one thread can interleave their store writes and
// break role alternation.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (c *conversationLocks) get(userID int32, conversationID string) *sync.Mutex {
	key := fmt.Sprintf("%d/%s", userID, conversationID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if lock, ok := c.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	c.locks[key] = lock
	return lock
}
