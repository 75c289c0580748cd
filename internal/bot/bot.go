// Package bot drives the conversational core: the scene state machine for
// registration and test authoring/editing, the test-taking flow, and the
// routing of decoded platform events between them.
package bot

import (
	"context"
	"log"
	"time"

	"github.com/sinovhub/sinovbot/internal/config"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

type Bot struct {
	store     store.Store
	sessions  *session.Manager
	transport Transport
	cfg       config.Config
	scenes    map[string]*Scene
	now       func() time.Time
}

// New wires the bot. now is injectable for deadline tests; pass time.Now.
func New(st store.Store, sessions *session.Manager, transport Transport, cfg config.Config, now func() time.Time) *Bot {
	b := &Bot{
		store:     st,
		sessions:  sessions,
		transport: transport,
		cfg:       cfg,
		now:       now,
	}
	b.scenes = map[string]*Scene{
		SceneRegistration: {Name: SceneRegistration, Steps: []StepFunc{
			b.registerChannels, b.registerFirstName, b.registerLastName, b.registerContact,
		}},
		SceneAuthorTest: {Name: SceneAuthorTest, Steps: []StepFunc{
			b.authorGate, b.authorTitle, b.authorAnswers, b.authorFiles, b.authorDeadline,
		}},
		SceneEditTest: {Name: SceneEditTest, Steps: []StepFunc{
			b.editLoad, b.editChoose, b.editApply,
		}},
	}
	return b
}

// SetTransport installs the outbound transport. The adapter consumes the
// bot's events and the bot sends through the adapter, so one side is
// attached after construction.
func (b *Bot) SetTransport(t Transport) { b.transport = t }

func (b *Bot) isTeacher(userID int64) bool { return b.cfg.IsTeacher(userID) }
func (b *Bot) isAdmin(userID int64) bool   { return userID == b.cfg.AdminID && userID != 0 }

// HandleEvent processes one inbound event to completion. Events for the same
// user are serialized; different users run independently. Any error escapes
// as exactly one generic failure reply, never a crash or a half-advanced
// session.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) {
	unlock := b.sessions.Lock(ev.UserID)
	defer unlock()

	s := b.sessions.Get(ev.UserID)
	if err := b.route(ctx, ev, s); err != nil {
		log.Printf("event from %d failed: %v", ev.UserID, err)
		b.reply(ctx, ev.UserID, msgGenericError)
	}
}

func (b *Bot) route(ctx context.Context, ev Event, s *session.Session) error {
	if !b.isTeacher(ev.UserID) {
		ok := b.checkSubscription(ctx, ev.UserID)
		if !ok {
			return nil // join prompt already sent
		}
	}

	if consumed, err := b.dispatchScene(ctx, ev, s); consumed || err != nil {
		return err
	}

	switch ev.Kind {
	case KindCommand:
		if ev.Command == "start" {
			return b.handleStart(ctx, ev, s)
		}
	case KindCallback:
		return b.handleCallback(ctx, ev, s)
	case KindText:
		return b.handleText(ctx, ev, s)
	}
	// Stray attachments and contacts outside a scene are not consumed.
	return nil
}

// checkSubscription verifies membership in every required channel and sends
// the join prompt on failure. A check that itself errors fails open.
func (b *Bot) checkSubscription(ctx context.Context, userID int64) bool {
	for _, ch := range b.cfg.RequiredChannels {
		status, err := b.transport.ChatMember(ctx, ch, userID)
		if err != nil {
			log.Printf("subscription check for %d in %s failed: %v", userID, ch, err)
			continue
		}
		if !status.Subscribed() {
			b.replyWith(ctx, userID, "❌ Botdan foydalanish uchun "+ch+" kanaliga obuna bo'ling!", &Markup{
				Inline: [][]InlineButton{{{Text: "📢 Kanalga o'tish", URL: channelURL(ch)}}},
			})
			return false
		}
	}
	return true
}

func channelURL(channel string) string {
	if len(channel) > 0 && channel[0] == '@' {
		channel = channel[1:]
	}
	return "https://t.me/" + channel
}

// reply sends plain text, logging a transport failure instead of
// propagating it.
func (b *Bot) reply(ctx context.Context, userID int64, text string) {
	b.replyWith(ctx, userID, text, nil)
}

func (b *Bot) replyWith(ctx context.Context, userID int64, text string, markup *Markup) {
	if err := b.transport.SendText(ctx, userID, text, markup); err != nil {
		log.Printf("send to %d failed: %v", userID, err)
	}
}
