package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

// Registration scene: channel gate, first name, last name, own contact.
// The User record is created only at the final step.

func (b *Bot) registerChannels(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	for _, ch := range b.cfg.RequiredChannels {
		status, err := b.transport.ChatMember(ctx, ch, ev.UserID)
		if err != nil {
			return Leave, err
		}
		if !status.Subscribed() {
			b.replyWith(ctx, ev.UserID, "❌ Botdan foydalanish uchun "+ch+" kanaliga obuna bo'ling!", &Markup{
				Inline: [][]InlineButton{{{Text: "📢 Kanalga o'tish", URL: channelURL(ch)}}},
			})
			return Remain, nil
		}
	}
	b.reply(ctx, ev.UserID, "Ismingizni kiriting:")
	return Advance, nil
}

func (b *Bot) registerFirstName(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	name := strings.TrimSpace(ev.Text)
	if ev.Kind != KindText || name == "" {
		b.reply(ctx, ev.UserID, "❌ Iltimos, ismingizni matn sifatida kiriting.")
		return Remain, nil
	}
	s.State.(*session.Registration).FirstName = name
	b.reply(ctx, ev.UserID, "Familiyangizni kiriting:")
	return Advance, nil
}

func (b *Bot) registerLastName(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	name := strings.TrimSpace(ev.Text)
	if ev.Kind != KindText || name == "" {
		b.reply(ctx, ev.UserID, "❌ Iltimos, familiyangizni matn sifatida kiriting.")
		return Remain, nil
	}
	s.State.(*session.Registration).LastName = name
	b.replyWith(ctx, ev.UserID, "📱 Telefon raqamingizni yuborish uchun tugmani bosing:", &Markup{
		Reply:          [][]ReplyButton{{{Text: "📱 Telefon raqamni yuborish", RequestContact: true}}},
		ResizeKeyboard: true,
		OneTime:        true,
	})
	return Advance, nil
}

func (b *Bot) registerContact(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	if ev.Kind != KindContact || ev.Contact == nil {
		b.reply(ctx, ev.UserID, `❌ Iltimos, "Telefon raqamni yuborish" tugmasini bosing.`)
		return Remain, nil
	}
	// A forwarded contact carries someone else's identity; only the user's
	// own number is accepted.
	if ev.Contact.UserID != ev.UserID {
		b.reply(ctx, ev.UserID, "❌ Faqat o'zingizning telefon raqamingizni yuboring.")
		return Remain, nil
	}

	st := s.State.(*session.Registration)
	role := b.roleOf(ev.UserID)
	now := b.now()
	err := b.store.CreateUser(ctx, store.User{
		TelegramID:  ev.UserID,
		FirstName:   st.FirstName,
		LastName:    st.LastName,
		PhoneNumber: ev.Contact.PhoneNumber,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if errors.Is(err, store.ErrDuplicate) {
		b.replyWith(ctx, ev.UserID, "Siz allaqachon ro'yxatdan o'tgansiz.", &Markup{RemoveKeyboard: true})
		b.showMainMenu(ctx, ev.UserID, role)
		return Leave, nil
	}
	if err != nil {
		return Leave, err
	}

	roleName := "O'quvchi"
	if role == store.RoleTeacher {
		roleName = "O'qituvchi"
	}
	b.replyWith(ctx, ev.UserID, "✅ "+roleName+" sifatida ro'yxatdan o'tdingiz!", &Markup{RemoveKeyboard: true})
	b.showMainMenu(ctx, ev.UserID, role)
	return Leave, nil
}
