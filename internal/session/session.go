// Package session holds the ephemeral per-user conversation state. Nothing
// here survives a restart; in-flight scenes are simply lost.
package session

import "sync"

// State is the scene-scoped accumulator. Exactly one variant is live while
// its scene is active, so steps never see fields from another scene.
type State interface {
	sceneState()
}

// Registration collects a profile before the contact share creates the user.
type Registration struct {
	FirstName string
	LastName  string
}

// Author accumulates a new test across the authoring steps.
type Author struct {
	Title   string
	Answers []string
	FileIDs []string
}

// EditChoice is the field selected in the edit menu.
type EditChoice int

const (
	EditNothing EditChoice = iota
	EditTitle
	EditAnswers
	EditFiles
	EditDeadline
)

// Edit tracks an edit session for one existing test.
type Edit struct {
	TestID     string
	Choice     EditChoice
	NewFileIDs []string
}

func (*Registration) sceneState() {}
func (*Author) sceneState()       {}
func (*Edit) sceneState()         {}

// Session is one user's transient conversational state.
type Session struct {
	Scene string // active scene name, "" when none
	Step  int
	State State

	// CurrentTest is the id of the test the user is taking; the next
	// free-text message is treated as their submission.
	CurrentTest string

	// AwaitingBroadcast marks that the teacher's next text message is a
	// broadcast to all students.
	AwaitingBroadcast bool
}

// InScene reports whether a scene is active.
func (s *Session) InScene() bool { return s.Scene != "" }

// LeaveScene clears every scene-scoped field. Flow fields (CurrentTest,
// AwaitingBroadcast) are owned by their flows and cleared there.
func (s *Session) LeaveScene() {
	s.Scene = ""
	s.Step = 0
	s.State = nil
}

// Manager owns all sessions, keyed by user identity. Lock serializes events
// for one user so two steps of the same scene never run concurrently;
// different users proceed independently.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	locks    map[int64]*sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Get returns the user's session, creating an empty one on first use.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{}
		m.sessions[userID] = s
	}
	return s
}

// Lock acquires the per-user event lock and returns the unlock func.
func (m *Manager) Lock(userID int64) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Reset drops the user's session entirely.
func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
