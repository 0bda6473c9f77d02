package server

import (
	"sort"
	"sync"
)

// Member is one player's standing within a joined scenario, per spec.md §3
// "A members table maps scenario-id -> player-id -> (email, role, ship?)".
type Member struct {
	Email string
	Role  string
	Ship  *string
}

// MembersTable fans membership changes out to every connection in a
// scenario as a Users response. Every connection's own goroutine (see
// Processor.HandleConnection) reads and mutates it, so an RWMutex guards
// the table; grounded on processor.rs's ServerMembersTable.
type MembersTable struct {
	mu    sync.RWMutex
	table map[string]map[uint64]Member
}

func NewMembersTable() *MembersTable {
	return &MembersTable{table: make(map[string]map[uint64]Member)}
}

func (t *MembersTable) Update(scenarioID string, playerID uint64, email, role string, ship *string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	scenario, ok := t.table[scenarioID]
	if !ok {
		scenario = make(map[uint64]Member)
		t.table[scenarioID] = scenario
	}
	scenario[playerID] = Member{Email: email, Role: role, Ship: ship}
}

func (t *MembersTable) Remove(scenarioID string, playerID uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if scenario, ok := t.table[scenarioID]; ok {
		delete(scenario, playerID)
	}
}

// Users renders the current membership of scenarioID as a stable-ordered
// list of display strings for the Users response.
func (t *MembersTable) Users(scenarioID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	scenario := t.table[scenarioID]
	users := make([]string, 0, len(scenario))
	for _, m := range scenario {
		display := m.Email + " (" + m.Role + ")"
		if m.Ship != nil {
			display = m.Email + " (" + m.Role + " on " + *m.Ship + ")"
		}
		users = append(users, display)
	}
	sort.Strings(users)
	return users
}
