package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sinovhub/sinovbot/internal/scoring"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

// Edit-Test scene: pick one of four fields, revalidate with the same rules
// as authoring, apply a partial update. Only one field changes per session.

func (b *Bot) editLoad(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	st := s.State.(*session.Edit)
	if _, err := b.store.GetTest(ctx, st.TestID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.reply(ctx, ev.UserID, msgTestNotFound)
			return Leave, nil
		}
		return Leave, err
	}
	b.replyWith(ctx, ev.UserID,
		"📝 Test ma'lumotlarini tahrirlash\n\n"+
			"Nima o'zgartirmoqchisiz?\n\n"+
			"1. Test mavzusi\n"+
			"2. Test javoblari\n"+
			"3. Test fayllari\n"+
			"4. Test muddati\n\n"+
			`Raqamni tanlang yoki "bekor" deb yozing`,
		&Markup{
			Reply:          [][]ReplyButton{{{Text: "1"}, {Text: "2"}, {Text: "3"}, {Text: "4"}}, {{Text: tokenCancel}}},
			ResizeKeyboard: true,
			OneTime:        true,
		})
	return Advance, nil
}

func (b *Bot) editChoose(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind == KindText && strings.EqualFold(text, tokenCancel) {
		b.showMainMenu(ctx, ev.UserID, store.RoleTeacher)
		return Leave, nil
	}

	choice, err := strconv.Atoi(text)
	if ev.Kind != KindText || err != nil || choice < 1 || choice > 4 {
		b.reply(ctx, ev.UserID, "❌ Noto'g'ri tanlov. 1, 2, 3 yoki 4 raqamlaridan birini tanlang")
		return Remain, nil
	}

	st := s.State.(*session.Edit)
	st.Choice = session.EditChoice(choice)
	switch st.Choice {
	case session.EditTitle:
		b.reply(ctx, ev.UserID, "📝 Yangi test mavzusini kiriting:")
	case session.EditAnswers:
		b.reply(ctx, ev.UserID, "📋 Yangi test javoblarini kiriting (har bir javob yangi qatorda):\nMasalan:\n1-a\n2-b\n3-c")
	case session.EditFiles:
		st.NewFileIDs = []string{}
		b.reply(ctx, ev.UserID,
			"📎 Yangi fayllarni yuboring (PDF, rasm yoki boshqa formatda).\n"+
				"Bir nechta fayl yuborish uchun har birini alohida yuboring.\n"+
				`Fayllarni yuborib bo'lgach, "tayyor" deb yozing.`)
	case session.EditDeadline:
		b.reply(ctx, ev.UserID, "⏰ Yangi test muddatini kiriting (DD.MM.YYYY HH:mm):")
	}
	return Advance, nil
}

func (b *Bot) editApply(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	st := s.State.(*session.Edit)
	var upd store.TestUpdate

	switch st.Choice {
	case session.EditTitle:
		title := strings.TrimSpace(ev.Text)
		if ev.Kind != KindText || title == "" {
			b.reply(ctx, ev.UserID, "❌ Iltimos, yangi mavzuni matn sifatida kiriting.")
			return Remain, nil
		}
		upd.Title = &title

	case session.EditAnswers:
		answers := scoring.ParseTokens(ev.Text)
		if len(answers) == 0 {
			b.reply(ctx, ev.UserID, "❌ Noto'g'ri format. Iltimos qaytadan kiriting (masalan: 1-a)")
			return Remain, nil
		}
		upd.Answers = answers

	case session.EditFiles:
		done := ev.Kind == KindText && strings.EqualFold(strings.TrimSpace(ev.Text), tokenDone)
		if !done {
			if ev.Kind != KindDocument && ev.Kind != KindPhoto {
				b.reply(ctx, ev.UserID, `❌ Iltimos, fayl yuboring yoki "tayyor" deb yozing.`)
				return Remain, nil
			}
			st.NewFileIDs = append(st.NewFileIDs, ev.FileID)
			b.reply(ctx, ev.UserID, fmt.Sprintf(`✅ Fayl qo'shildi (%d ta). Yana fayl yuboring yoki "tayyor" deb yozing.`, len(st.NewFileIDs)))
			return Remain, nil
		}
		if len(st.NewFileIDs) == 0 {
			b.reply(ctx, ev.UserID, "❌ Hech bo'lmaganda bitta fayl yuborishingiz kerak!")
			return Remain, nil
		}
		upd.FileIDs = st.NewFileIDs

	case session.EditDeadline:
		deadline, err := parseDeadline(ev.Text)
		if ev.Kind != KindText || err != nil {
			b.reply(ctx, ev.UserID, "❌ Noto'g'ri sana formati. Iltimos qaytadan kiriting (DD.MM.YYYY HH:mm):")
			return Remain, nil
		}
		upd.Deadline = &deadline
	}

	if err := b.store.UpdateTest(ctx, st.TestID, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.reply(ctx, ev.UserID, msgTestNotFound)
			return Leave, nil
		}
		return Leave, err
	}
	b.reply(ctx, ev.UserID, "✅ Test muvaffaqiyatli yangilandi!")
	b.showMainMenu(ctx, ev.UserID, store.RoleTeacher)
	return Leave, nil
}
