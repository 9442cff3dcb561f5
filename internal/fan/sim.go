package fan

import "sync"

// Sim records drive levels in memory for development and tests.
type Sim struct {
	mu     sync.Mutex
	on     bool
	writes int
}

func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.on = on
	s.writes++
	return nil
}

func (s *Sim) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Writes reports how many times Set was called, transitions or not.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
