package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/sinovhub/sinovbot/internal/scoring"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

// Test taking is not a scene: initiate delivers the files and arms
// CurrentTest; the next free-text message while armed is the submission.

func (b *Bot) initiateTest(ctx context.Context, userID int64, testID string, s *session.Session) error {
	test, err := b.store.GetTest(ctx, testID)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, userID, "Test topilmadi.")
		return nil
	}
	if err != nil {
		return err
	}

	if b.now().After(test.Deadline) {
		b.reply(ctx, userID, "Ushbu testning muddati tugagan.")
		return nil
	}

	if _, err := b.store.GetResult(ctx, userID, testID); err == nil {
		b.reply(ctx, userID, "Siz bu testni allaqachon topshirgansiz.")
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// Best effort: a failed delivery is reported but the rest still go out.
	for _, fileID := range test.FileIDs {
		if err := b.transport.SendFileRef(ctx, userID, fileID, "📎 Test fayli"); err != nil {
			log.Printf("test %s: file %s to %d failed: %v", testID, fileID, userID, err)
			b.reply(ctx, userID, "⚠️ Test faylini yuborishda xatolik yuz berdi")
		}
	}

	b.reply(ctx, userID, fmt.Sprintf(
		"📝 %s testi.\n\nSavollar soni: %d\n⏰ Muddat: %s\n\n"+
			"Javoblarni quyidagi formatda yuboring:\n1-a\n2-b\n3-c\n...\n\n"+
			"Eslatma: Barcha javoblarni bir xabarda yuborish kerak!",
		test.Title, len(test.Answers), test.Deadline.Format(deadlineLayout)))
	s.CurrentTest = testID
	return nil
}

func (b *Bot) submitAnswers(ctx context.Context, ev Event, s *session.Session) error {
	test, err := b.store.GetTest(ctx, s.CurrentTest)
	if errors.Is(err, store.ErrNotFound) {
		s.CurrentTest = ""
		b.reply(ctx, ev.UserID, "Test topilmadi.")
		return nil
	}
	if err != nil {
		return err
	}

	if b.now().After(test.Deadline) {
		s.CurrentTest = ""
		b.reply(ctx, ev.UserID, "Testning muddati tugagan.")
		return nil
	}

	answers := scoring.ParseSubmission(ev.Text)
	if len(answers) == 0 {
		b.reply(ctx, ev.UserID, "Noto'g'ri format. Javoblarni quyidagi formatda yuboring:\n1-a\n2-b\n3-c\n...")
		return nil
	}
	// The session stays armed so the student can resend a corrected list.
	if len(answers) != len(test.Answers) {
		b.reply(ctx, ev.UserID, fmt.Sprintf(
			"Barcha savollarga javob bermadingiz.\nSavollar soni: %d\nSizning javoblaringiz: %d",
			len(test.Answers), len(answers)))
		return nil
	}

	score, correct := scoring.Score(test.Answers, answers)

	err = b.store.CreateResult(ctx, store.TestResult{
		UserID:      ev.UserID,
		TestID:      test.ID,
		Answers:     answers,
		Score:       score,
		SubmittedAt: b.now(),
	})
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the check-then-insert race; the unique index kept one row.
		s.CurrentTest = ""
		b.reply(ctx, ev.UserID, "Siz bu testni allaqachon topshirgansiz.")
		return nil
	}
	if err != nil {
		return err
	}
	s.CurrentTest = ""

	name := "O'quvchi"
	if u, err := b.store.GetUser(ctx, ev.UserID); err == nil {
		name = u.FullName()
	}

	b.reply(ctx, ev.UserID, fmt.Sprintf(
		"%s Test natijasi:\n\n%s Ball: %.1f%%\n✅ To'g'ri javoblar: %d ta\n❌ Noto'g'ri javoblar: %d ta\n\n%s",
		resultEmoji(score), scoreColor(score), score, correct, len(test.Answers)-correct,
		scoring.Feedback(name, score)))
	return nil
}

func scoreColor(score float64) string {
	switch {
	case score >= 80:
		return "🟢"
	case score >= 60:
		return "🟡"
	default:
		return "🔴"
	}
}

func resultEmoji(score float64) string {
	switch {
	case score >= 80:
		return "🎉"
	case score >= 60:
		return "👍"
	default:
		return "😕"
	}
}
