// Package session remembers per-file view state between runs.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Rancor38/Jot-Down/internal/config"
)

const saveInterval = 15 * time.Second

// FileState is the view state of one notes file.
type FileState struct {
	Scroll int `json:"scroll"`
	// Unit is the index of the unit that was last edited, or -1.
	Unit int `json:"unit"`
}

type Session struct {
	Files      map[string]FileState `json:"files"`
	ActiveFile string               `json:"active_file,omitempty"`
	LastSaved  time.Time            `json:"last_saved"`
}

// Manager keeps the session in memory and writes it out periodically.
type Manager struct {
	mu       sync.RWMutex
	session  Session
	path     string
	dirty    bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// DefaultPath is session.json under the jotdown state directory.
func DefaultPath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// NewManager loads the session stored at path, if any, and starts the
// periodic save loop.
func NewManager(path string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	m := &Manager{
		session:  Session{Files: make(map[string]FileState)},
		path:     path,
		stopChan: make(chan struct{}),
	}
	m.load()

	m.wg.Add(1)
	go m.loop()
	return m, nil
}

func (m *Manager) load() {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	m.session = s
}

// Save writes the session if anything changed since the last write.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil
	}
	m.session.LastSaved = time.Now()
	data, err := json.MarshalIndent(m.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return err
	}
	m.dirty = false
	return nil
}

func (m *Manager) FileState(absPath string) (FileState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.session.Files[absPath]
	return st, ok
}

func (m *Manager) SetFileState(absPath string, st FileState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.session.Files[absPath]; ok && cur == st && m.session.ActiveFile == absPath {
		return
	}
	m.session.Files[absPath] = st
	m.session.ActiveFile = absPath
	m.dirty = true
}

func (m *Manager) ActiveFile() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.ActiveFile
}

func (m *Manager) loop() {
	defer m.wg.Done()
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = m.Save()
		case <-m.stopChan:
			return
		}
	}
}

// Stop ends the save loop and writes any pending state.
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
	return m.Save()
}
