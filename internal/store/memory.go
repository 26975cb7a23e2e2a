package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lox/pokerhud/internal/entity"
)

// Memory is an in-process Store used by tests and the replay tooling. A
// ReadWrite transaction stages writes and applies them in one locked commit,
// preserving the all-or-nothing contract.
type Memory struct {
	mu      sync.RWMutex
	hands   map[int64]entity.Hand
	phases  map[int64][]entity.PhaseRecord
	actions map[int64][]entity.Action
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		hands:   make(map[int64]entity.Hand),
		phases:  make(map[int64][]entity.PhaseRecord),
		actions: make(map[int64][]entity.Action),
	}
}

func (m *Memory) PutHand(_ context.Context, hand *entity.Hand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands[hand.ID] = *hand
	return nil
}

func (m *Memory) PutHands(_ context.Context, hands []entity.Hand) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range hands {
		m.hands[hands[i].ID] = hands[i]
	}
	return nil
}

func (m *Memory) PutPhases(_ context.Context, phases []entity.PhaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putPhasesLocked(phases)
	return nil
}

func (m *Memory) putPhasesLocked(phases []entity.PhaseRecord) {
	for i := range phases {
		p := phases[i]
		existing := m.phases[p.HandID]
		replaced := false
		for j := range existing {
			if existing[j].Phase == p.Phase {
				existing[j] = p
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, p)
		}
		m.phases[p.HandID] = existing
	}
}

func (m *Memory) PutActions(_ context.Context, actions []entity.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putActionsLocked(actions)
	return nil
}

func (m *Memory) putActionsLocked(actions []entity.Action) {
	for i := range actions {
		a := actions[i]
		existing := m.actions[a.HandID]
		replaced := false
		for j := range existing {
			if existing[j].Index == a.Index {
				existing[j] = a
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, a)
		}
		m.actions[a.HandID] = existing
	}
}

func (m *Memory) HandsByPlayer(_ context.Context, playerID int64) ([]entity.Hand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hands []entity.Hand
	for _, h := range m.hands {
		for _, id := range h.SeatPlayers {
			if id == playerID {
				hands = append(hands, h)
				break
			}
		}
	}
	sort.Slice(hands, func(i, j int) bool { return hands[i].ID < hands[j].ID })
	return hands, nil
}

func (m *Memory) HandsBetween(_ context.Context, from, to int64) ([]entity.Hand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hands []entity.Hand
	for _, h := range m.hands {
		if h.Timestamp >= from && h.Timestamp <= to {
			hands = append(hands, h)
		}
	}
	sort.Slice(hands, func(i, j int) bool { return hands[i].ID < hands[j].ID })
	return hands, nil
}

func (m *Memory) ActionsByPlayer(_ context.Context, playerID int64) ([]entity.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var actions []entity.Action
	for _, list := range m.actions {
		for i := range list {
			if list[i].PlayerID == playerID {
				actions = append(actions, list[i])
			}
		}
	}
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].HandID != actions[j].HandID {
			return actions[i].HandID < actions[j].HandID
		}
		return actions[i].Index < actions[j].Index
	})
	return actions, nil
}

func (m *Memory) PhasesByPlayer(_ context.Context, playerID int64) ([]entity.PhaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var phases []entity.PhaseRecord
	for _, list := range m.phases {
		for i := range list {
			for _, id := range list[i].PlayerIDs {
				if id == playerID {
					phases = append(phases, list[i])
					break
				}
			}
		}
	}
	sort.Slice(phases, func(i, j int) bool {
		if phases[i].HandID != phases[j].HandID {
			return phases[i].HandID < phases[j].HandID
		}
		return phases[i].Phase < phases[j].Phase
	})
	return phases, nil
}

// WithTx stages ReadWrite writes and commits them atomically. ReadOnly
// transactions read the live maps directly.
func (m *Memory) WithTx(ctx context.Context, mode TxMode, fn func(tx Store) error) error {
	if mode == ReadOnly {
		return fn(m)
	}
	staged := &memoryTx{Memory: m}
	if err := fn(staged); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range staged.hands {
		m.hands[staged.hands[i].ID] = staged.hands[i]
	}
	m.putPhasesLocked(staged.phases)
	m.putActionsLocked(staged.actions)
	return nil
}

// memoryTx buffers writes until commit; reads delegate to the live store.
type memoryTx struct {
	*Memory
	hands   []entity.Hand
	phases  []entity.PhaseRecord
	actions []entity.Action
}

func (t *memoryTx) PutHand(_ context.Context, hand *entity.Hand) error {
	t.hands = append(t.hands, *hand)
	return nil
}

func (t *memoryTx) PutHands(_ context.Context, hands []entity.Hand) error {
	t.hands = append(t.hands, hands...)
	return nil
}

func (t *memoryTx) PutPhases(_ context.Context, phases []entity.PhaseRecord) error {
	t.phases = append(t.phases, phases...)
	return nil
}

func (t *memoryTx) PutActions(_ context.Context, actions []entity.Action) error {
	t.actions = append(t.actions, actions...)
	return nil
}

func (t *memoryTx) WithTx(ctx context.Context, _ TxMode, fn func(tx Store) error) error {
	return fn(t)
}
