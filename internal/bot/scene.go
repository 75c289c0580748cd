package bot

import (
	"context"
	"fmt"

	"github.com/sinovhub/sinovbot/internal/session"
)

// StepResult is the explicit outcome of a scene step. A step never falls
// off implicitly: it either stays on the same step, moves forward, or ends
// the scene. There is no backward transition.
type StepResult int

const (
	// Remain re-delivers the next event to the same step (validation
	// failures, multi-file accumulation).
	Remain StepResult = iota
	// Advance moves to the next step.
	Advance
	// Leave ends the scene and clears its session state.
	Leave
)

// StepFunc consumes one inbound event with the user's mutable session.
type StepFunc func(ctx context.Context, ev Event, s *session.Session) (StepResult, error)

type Scene struct {
	Name  string
	Steps []StepFunc
}

// Scene names.
const (
	SceneRegistration = "registration"
	SceneAuthorTest   = "authorTest"
	SceneEditTest     = "editTest"
)

// EnterScene resets the session to step 0 of the named scene with a fresh
// state variant and runs the first step with the triggering event.
func (b *Bot) EnterScene(ctx context.Context, name string, state session.State, ev Event, s *session.Session) error {
	sc, ok := b.scenes[name]
	if !ok {
		return fmt.Errorf("unknown scene %q", name)
	}
	s.Scene = sc.Name
	s.Step = 0
	s.State = state
	return b.runStep(ctx, sc, ev, s)
}

// dispatchScene delivers the event to the active step of the user's scene.
// It reports false when no scene is active and the event was not consumed.
func (b *Bot) dispatchScene(ctx context.Context, ev Event, s *session.Session) (bool, error) {
	if !s.InScene() {
		return false, nil
	}
	sc, ok := b.scenes[s.Scene]
	if !ok {
		// Stale scene name; drop the broken session rather than wedge the user.
		s.LeaveScene()
		return false, nil
	}
	return true, b.runStep(ctx, sc, ev, s)
}

func (b *Bot) runStep(ctx context.Context, sc *Scene, ev Event, s *session.Session) error {
	if s.Step < 0 || s.Step >= len(sc.Steps) {
		s.LeaveScene()
		return fmt.Errorf("scene %s: step %d out of range", sc.Name, s.Step)
	}
	res, err := sc.Steps[s.Step](ctx, ev, s)
	if err != nil {
		// A failed step must not leave the session half-advanced.
		s.LeaveScene()
		return err
	}
	switch res {
	case Advance:
		s.Step++
		if s.Step >= len(sc.Steps) {
			s.LeaveScene()
		}
	case Leave:
		s.LeaveScene()
	}
	return nil
}
