package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"text-palette/internal/model"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrBuiltinMessage  = errors.New("builtin messages cannot be changed")
)

const (
	MessageTask     = "When you have eliminated the impossible, whatever remains, however improbable, must be the truth."
	MessageExtra    = "In a hole in the ground there lived a hobbit. Not a nasty, dirty, wet hole, but a hobbit-hole."
	MessageAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// BuiltinMessages returns the seeded library entries in display order.
func BuiltinMessages() []model.LibraryMessage {
	return []model.LibraryMessage{
		{ID: "task", Title: "Task", Text: MessageTask, Builtin: true},
		{ID: "extra", Title: "Hobbit", Text: MessageExtra, Builtin: true},
		{ID: "alphabet", Title: "Alphabet", Text: MessageAlphabet, Builtin: true},
	}
}

type Store struct {
	path  string
	mu    sync.RWMutex
	state model.StoredState
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.state = defaultState()
			return s.saveLocked()
		}
		return err
	}
	if len(b) == 0 {
		s.state = defaultState()
		return s.saveLocked()
	}

	var state model.StoredState
	if err := json.Unmarshal(b, &state); err != nil {
		return err
	}
	mergeDefaults(&state)
	s.state = state
	return nil
}

func defaultState() model.StoredState {
	state := model.StoredState{CreatedAt: time.Now().UTC()}
	mergeDefaults(&state)
	return state
}

func mergeDefaults(state *model.StoredState) {
	if state.Messages == nil {
		state.Messages = map[string]model.LibraryMessage{}
	}
	now := time.Now().UnixMilli()
	for _, m := range BuiltinMessages() {
		if _, ok := state.Messages[m.ID]; !ok {
			m.CreatedAt = now
			state.Messages[m.ID] = m
		}
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now().UTC()
	}
}

func (s *Store) saveLocked() error {
	s.state.LastUpdatedUnixMS = time.Now().UnixMilli()
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}

func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// ListMessages returns builtins first, then user messages oldest first.
func (s *Store) ListMessages() []model.LibraryMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LibraryMessage, 0, len(s.state.Messages))
	for _, m := range s.state.Messages {
		out = append(out, m)
	}
	order := map[string]int{}
	for i, m := range BuiltinMessages() {
		order[m.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Builtin != b.Builtin {
			return a.Builtin
		}
		if a.Builtin {
			return order[a.ID] < order[b.ID]
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Store) GetMessage(id string) (model.LibraryMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.Messages[id]
	if !ok {
		return model.LibraryMessage{}, ErrMessageNotFound
	}
	return m, nil
}

// UpsertMessage stores m, assigning an ID when it has none.
func (s *Store) UpsertMessage(m model.LibraryMessage) (model.LibraryMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if prev, ok := s.state.Messages[m.ID]; ok {
		if prev.Builtin {
			return model.LibraryMessage{}, ErrBuiltinMessage
		}
		m.CreatedAt = prev.CreatedAt
	} else {
		m.CreatedAt = time.Now().UnixMilli()
	}
	m.Builtin = false
	s.state.Messages[m.ID] = m
	if err := s.saveLocked(); err != nil {
		return model.LibraryMessage{}, err
	}
	return m, nil
}

func (s *Store) DeleteMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.state.Messages[id]
	if !ok {
		return ErrMessageNotFound
	}
	if m.Builtin {
		return ErrBuiltinMessage
	}
	delete(s.state.Messages, id)
	return s.saveLocked()
}
