// Package session holds the ambient table context attached to hands at
// conversion time: which tournament or ring game is running and who the
// known players are. Mutations happen through Apply; persistence timing is
// the owner's concern via the Dirty/MarkClean contract, never a side effect
// of assignment.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lox/pokerhud/internal/entity"
	"github.com/lox/pokerhud/internal/event"
)

// PlayerInfo is what the table roster knows about one player.
type PlayerInfo struct {
	Name string
	Rank string
}

// Context is the mutable session state. Safe for use from the single
// pipeline goroutine plus concurrent readers.
type Context struct {
	mu         sync.RWMutex
	id         string
	battleType int
	name       string
	players    map[int64]PlayerInfo
	dirty      bool
}

// New returns an empty session context.
func New() *Context {
	return &Context{players: make(map[int64]PlayerInfo)}
}

// Apply updates the context from a session/meta event. Non-session events
// are ignored.
func (c *Context) Apply(ev *event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case ev.EntryQueued != nil:
		c.id = ev.EntryQueued.SessionID
		if c.id == "" {
			c.id = uuid.NewString()
		}
		c.battleType = ev.EntryQueued.BattleType
		c.dirty = true
	case ev.SessionDetails != nil:
		if ev.SessionDetails.SessionID != "" {
			c.id = ev.SessionDetails.SessionID
		}
		c.battleType = ev.SessionDetails.BattleType
		if ev.SessionDetails.Name != "" {
			c.name = ev.SessionDetails.Name
		}
		c.dirty = true
	case ev.SeatsAssigned != nil:
		for _, u := range ev.SeatsAssigned.TableUsers {
			c.players[u.PlayerID] = PlayerInfo{Name: u.Name, Rank: u.Rank}
		}
		c.dirty = true
	case ev.PlayerJoin != nil:
		u := ev.PlayerJoin.User
		c.players[u.PlayerID] = PlayerInfo{Name: u.Name, Rank: u.Rank}
		c.dirty = true
	}
}

// Reset clears all session state at a session boundary.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
	c.battleType = 0
	c.name = ""
	c.players = make(map[int64]PlayerInfo)
	c.dirty = true
}

// Ref returns the immutable reference attached to hands.
func (c *Context) Ref() entity.SessionRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return entity.SessionRef{ID: c.id, BattleType: c.battleType, Name: c.name}
}

// Player looks up roster info for a player id.
func (c *Context) Player(id int64) (PlayerInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.players[id]
	return info, ok
}

// BattleType returns the current battle type.
func (c *Context) BattleType() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.battleType
}

// Dirty reports whether the context changed since the last MarkClean. The
// owner decides when to persist; field updates never write through on their
// own.
func (c *Context) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// MarkClean records that the current state has been persisted.
func (c *Context) MarkClean() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = false
}
