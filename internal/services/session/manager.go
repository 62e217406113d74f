package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/flyer-maker/internal/services/compositor"
	"github.com/phambaophuc/flyer-maker/internal/services/crop"
	"github.com/phambaophuc/flyer-maker/internal/services/processor"
)

type Dependencies struct {
	Viewport   crop.Viewport
	Compositor *compositor.Compositor
	Processor  *processor.ImageProcessor
	Templates  TemplateProvider
}

// Manager keeps sessions in memory only. Idle sessions are dropped by Sweep.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Dependencies
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(deps Dependencies, ttl time.Duration) (*Manager, error) {
	if err := deps.Viewport.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		sessions: make(map[string]*Session),
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (m *Manager) Create() (*Session, error) {
	engine, err := crop.NewEngine(m.deps.Viewport)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:         uuid.New().String(),
		state:      StateInitial,
		engine:     engine,
		compositor: m.deps.Compositor,
		processor:  m.deps.Processor,
		templates:  m.deps.Templates,
		now:        m.now,
		lastActive: m.now(),
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed. Session activity is read outside the registry lock.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.RLock()
	candidates := make(map[string]*Session, len(m.sessions))
	for id, s := range m.sessions {
		candidates[id] = s
	}
	m.mu.RUnlock()

	var stale []string
	for id, s := range candidates {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if s, ok := m.sessions[id]; ok && s == candidates[id] {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
