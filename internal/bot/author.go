package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sinovhub/sinovbot/internal/scoring"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

// deadlineLayout is the DD.MM.YYYY HH:mm form the teacher types.
const deadlineLayout = "02.01.2006 15:04"

func parseDeadline(text string) (time.Time, error) {
	return time.ParseInLocation(deadlineLayout, strings.TrimSpace(text), time.Local)
}

// Author-Test scene: role gate, title, answer key, files until "tayyor",
// deadline, then one Test insert.

func (b *Bot) authorGate(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return Leave, nil
	}
	b.reply(ctx, ev.UserID, "📝 Test mavzusini kiriting:")
	return Advance, nil
}

func (b *Bot) authorTitle(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	title := strings.TrimSpace(ev.Text)
	if ev.Kind != KindText || title == "" {
		b.reply(ctx, ev.UserID, "❌ Iltimos, test mavzusini matn sifatida kiriting.")
		return Remain, nil
	}
	s.State.(*session.Author).Title = title
	b.reply(ctx, ev.UserID, "📋 Test javoblarini kiriting (har bir javob yangi qatorda, masalan:\n1-a\n2-b\n3-c\n...)")
	return Advance, nil
}

func (b *Bot) authorAnswers(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	answers := scoring.ParseTokens(ev.Text)
	if len(answers) == 0 {
		b.reply(ctx, ev.UserID, "❌ Noto'g'ri format. Iltimos qaytadan kiriting (masalan: 1-a)")
		return Remain, nil
	}
	st := s.State.(*session.Author)
	st.Answers = answers
	st.FileIDs = []string{}
	b.reply(ctx, ev.UserID,
		"📎 Test uchun fayllarni yuboring (PDF, rasm yoki boshqa formatda).\n"+
			"Bir nechta fayl yuborish uchun har birini alohida yuboring.\n"+
			`Fayllarni yuborib bo'lgach, "tayyor" deb yozing.`)
	return Advance, nil
}

func (b *Bot) authorFiles(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	st := s.State.(*session.Author)
	if ev.Kind == KindText && strings.EqualFold(strings.TrimSpace(ev.Text), tokenDone) {
		if len(st.FileIDs) == 0 {
			b.reply(ctx, ev.UserID, "❌ Hech bo'lmaganda bitta fayl yuborishingiz kerak!")
			return Remain, nil
		}
		b.reply(ctx, ev.UserID, "⏰ Test muddatini kiriting (DD.MM.YYYY HH:mm formatida):")
		return Advance, nil
	}

	if ev.Kind != KindDocument && ev.Kind != KindPhoto {
		b.reply(ctx, ev.UserID, `❌ Iltimos, fayl yuboring (PDF, rasm yoki boshqa formatda) yoki "tayyor" deb yozing.`)
		return Remain, nil
	}
	st.FileIDs = append(st.FileIDs, ev.FileID)
	b.reply(ctx, ev.UserID, fmt.Sprintf(`✅ Fayl qo'shildi (%d ta). Yana fayl yuboring yoki "tayyor" deb yozing.`, len(st.FileIDs)))
	return Remain, nil
}

func (b *Bot) authorDeadline(ctx context.Context, ev Event, s *session.Session) (StepResult, error) {
	deadline, err := parseDeadline(ev.Text)
	if ev.Kind != KindText || err != nil {
		b.reply(ctx, ev.UserID, "❌ Noto'g'ri sana formati. Iltimos qaytadan kiriting (DD.MM.YYYY HH:mm):")
		return Remain, nil
	}

	st := s.State.(*session.Author)
	now := b.now()
	test := store.Test{
		ID:        uuid.NewString(),
		Title:     st.Title,
		Answers:   st.Answers,
		FileIDs:   st.FileIDs,
		Deadline:  deadline,
		CreatedBy: ev.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.store.CreateTest(ctx, test); err != nil {
		return Leave, err
	}

	b.reply(ctx, ev.UserID, "✅ Test muvaffaqiyatli yaratildi!")
	b.replyWith(ctx, ev.UserID, fmt.Sprintf(
		"📋 Test: %s\n🆔 ID: %s\n📝 Savollar soni: %d\n📎 Fayllar soni: %d\n⏰ Muddat: %s",
		test.Title, test.ID, len(test.Answers), len(test.FileIDs), deadline.Format(deadlineLayout)),
		&Markup{Inline: testAdminButtons(test.ID)})
	b.showMainMenu(ctx, ev.UserID, store.RoleTeacher)
	return Leave, nil
}

func testAdminButtons(testID string) [][]InlineButton {
	return [][]InlineButton{
		{
			{Text: "✏️ Tahrirlash", Data: CallbackData(ActionEdit, testID)},
			{Text: "📊 Natijalar", Data: CallbackData(ActionResults, testID)},
			{Text: "🗑 O'chirish", Data: CallbackData(ActionDelete, testID)},
		},
		{{Text: "📥 Natijalarni yuklab olish", Data: CallbackData(ActionDownload, testID)}},
	}
}
