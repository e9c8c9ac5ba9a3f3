package pool

import (
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory variable pool.
type Memory struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMemory creates a new in-memory pool.
func NewMemory() *Memory {
	return &Memory{vars: make(map[string]string)}
}

// Lookup returns the value of a variable. A compound variable without a value
// of its own takes the value assigned to its stem, if any.
func (m *Memory) Lookup(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vars[name]; ok {
		return v, true, nil
	}
	if s := stem(name); s != "" {
		v, ok := m.vars[s]
		return v, ok, nil
	}
	return "", false, nil
}

// Assign sets a variable. Assigning to a stem gives every compound variable
// of the stem the same value.
func (m *Memory) Assign(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if isStem(name) {
		m.dropStem(name)
	}
	m.vars[name] = value
	return nil
}

// Delete drops a variable.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if isStem(name) {
		m.dropStem(name)
	}
	delete(m.vars, name)
	return nil
}

// dropStem deletes the compound variables of a stem. The caller must hold
// the write lock.
func (m *Memory) dropStem(s string) {
	for k := range m.vars {
		if k != s && strings.HasPrefix(k, s) {
			delete(m.vars, k)
		}
	}
}

// Names returns the names of all assigned variables.
func (m *Memory) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := make([]string, 0, len(m.vars))
	for k := range m.vars {
		r = append(r, k)
	}
	sort.Strings(r)
	return r, nil
}

// Close is a no-op for memory pools.
func (m *Memory) Close() error {
	return nil
}
