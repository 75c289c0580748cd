package session

import (
	"sync"
	"testing"
)

func TestGetCreatesAndReusesSession(t *testing.T) {
	m := NewManager()
	s := m.Get(1)
	if s == nil || s.InScene() {
		t.Fatalf("fresh session: %+v", s)
	}
	s.Scene = "authorTest"
	s.Step = 2
	if again := m.Get(1); again != s {
		t.Fatal("Get returned a different session for the same user")
	}
	if other := m.Get(2); other == s {
		t.Fatal("sessions shared across users")
	}
}

func TestLeaveSceneKeepsFlowFields(t *testing.T) {
	s := &Session{
		Scene:             "editTest",
		Step:              1,
		State:             &Edit{TestID: "t1"},
		CurrentTest:       "t2",
		AwaitingBroadcast: true,
	}
	s.LeaveScene()
	if s.InScene() || s.Step != 0 || s.State != nil {
		t.Fatalf("scene fields not cleared: %+v", s)
	}
	if s.CurrentTest != "t2" || !s.AwaitingBroadcast {
		t.Fatalf("flow fields must survive LeaveScene: %+v", s)
	}
}

func TestResetDropsSession(t *testing.T) {
	m := NewManager()
	m.Get(1).Scene = "registration"
	m.Reset(1)
	if m.Get(1).InScene() {
		t.Fatal("session survived Reset")
	}
}

func TestLockSerializesPerUser(t *testing.T) {
	m := NewManager()
	const n = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	if counter != n {
		t.Fatalf("counter = %d, want %d", counter, n)
	}
}
