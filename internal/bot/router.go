package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sinovhub/sinovbot/internal/report"
	"github.com/sinovhub/sinovbot/internal/session"
	"github.com/sinovhub/sinovbot/internal/store"
)

func (b *Bot) handleStart(ctx context.Context, ev Event, s *session.Session) error {
	b.reply(ctx, ev.UserID, "👋 Xush kelibsiz!")
	_, err := b.store.GetUser(ctx, ev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return b.EnterScene(ctx, SceneRegistration, &session.Registration{}, ev, s)
	}
	if err != nil {
		return err
	}
	b.showMainMenu(ctx, ev.UserID, b.roleOf(ev.UserID))
	return nil
}

func (b *Bot) handleText(ctx context.Context, ev Event, s *session.Session) error {
	switch ev.Text {
	case menuCreateTest:
		return b.EnterScene(ctx, SceneAuthorTest, &session.Author{}, ev, s)
	case menuManageTests:
		return b.handleManageTests(ctx, ev)
	case menuViewResults:
		return b.handleViewResults(ctx, ev)
	case menuStudents:
		return b.handleStudents(ctx, ev)
	case menuBroadcast:
		return b.handleBroadcastPrompt(ctx, ev, s)
	case menuOpenTests:
		return b.handleOpenTests(ctx, ev)
	case menuMyResults:
		return b.handleMyResults(ctx, ev)
	}

	if s.AwaitingBroadcast {
		return b.handleBroadcastSend(ctx, ev, s)
	}
	if s.CurrentTest != "" {
		return b.submitAnswers(ctx, ev, s)
	}
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, ev Event, s *session.Session) error {
	cb := ev.Callback
	if cb == nil {
		return nil
	}
	switch cb.Action {
	case ActionTake:
		return b.initiateTest(ctx, ev.UserID, cb.Arg, s)
	case ActionEdit:
		return b.handleEditCallback(ctx, ev, s)
	case ActionResults:
		return b.handleResultsCallback(ctx, ev)
	case ActionDelete:
		return b.handleDeleteCallback(ctx, ev)
	case ActionDownload:
		return b.handleDownloadCallback(ctx, ev)
	case ActionDeleteStudent:
		return b.handleDeleteStudent(ctx, ev)
	}
	return nil
}

// mayManage reports whether the caller owns the test or is the admin.
func (b *Bot) mayManage(test store.Test, userID int64) bool {
	return test.CreatedBy == userID || b.isAdmin(userID)
}

func (b *Bot) handleManageTests(ctx context.Context, ev Event) error {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return nil
	}
	tests, err := b.store.ListTestsByCreator(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha testlar yo'q")
		return nil
	}
	for _, test := range tests {
		b.replyWith(ctx, ev.UserID, b.testCard(ctx, test), &Markup{Inline: testAdminButtons(test.ID)})
	}
	return nil
}

func (b *Bot) testCard(ctx context.Context, test store.Test) string {
	teacherName := "Noma'lum"
	if u, err := b.store.GetUser(ctx, test.CreatedBy); err == nil {
		teacherName = u.FullName()
	}
	return fmt.Sprintf("📋 Test: %s\n👨‍🏫 O'qituvchi: %s\n📝 Savollar soni: %d\n📎 Fayllar soni: %d\n⏰ Muddat: %s",
		test.Title, teacherName, len(test.Answers), len(test.FileIDs), test.Deadline.Format(deadlineLayout))
}

func (b *Bot) handleViewResults(ctx context.Context, ev Event) error {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return nil
	}
	tests, err := b.store.ListTestsByCreator(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha testlar yo'q")
		return nil
	}
	rows := make([][]InlineButton, 0, len(tests))
	for _, test := range tests {
		rows = append(rows, []InlineButton{{Text: "📊 " + test.Title, Data: CallbackData(ActionResults, test.ID)}})
	}
	b.replyWith(ctx, ev.UserID, "📈 Qaysi testning natijalarini ko'rmoqchisiz?", &Markup{Inline: rows})
	return nil
}

func (b *Bot) handleResultsCallback(ctx context.Context, ev Event) error {
	test, err := b.store.GetTest(ctx, ev.Callback.Arg)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, ev.UserID, msgTestNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if !b.mayManage(test, ev.UserID) {
		b.reply(ctx, ev.UserID, "❌ Siz faqat o'zingiz yaratgan testlarning natijalarini ko'ra olasiz")
		return nil
	}

	results, err := b.store.ListResultsByTest(ctx, test.ID, store.OrderBySubmittedDesc)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		b.reply(ctx, ev.UserID, "📭 Bu test uchun natijalar yo'q")
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 %s - Natijalar\n\n", test.Title)
	for _, r := range results {
		fmt.Fprintf(&sb, "%s %s: %.1f%%\n", scoreColor(r.Score), r.User.FullName(), r.Score)
	}
	b.replyWith(ctx, ev.UserID, sb.String(), &Markup{
		Inline: [][]InlineButton{{{Text: "📥 Natijalarni yuklash", Data: CallbackData(ActionDownload, test.ID)}}},
	})
	return nil
}

func (b *Bot) handleDeleteCallback(ctx context.Context, ev Event) error {
	test, err := b.store.GetTest(ctx, ev.Callback.Arg)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, ev.UserID, msgTestNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if !b.mayManage(test, ev.UserID) {
		b.reply(ctx, ev.UserID, "❌ Siz faqat o'zingiz yaratgan testlarni o'chira olasiz")
		return nil
	}
	// Cascades the test's results.
	if err := b.store.DeleteTest(ctx, test.ID); err != nil {
		return err
	}
	b.reply(ctx, ev.UserID, "✅ Test muvaffaqiyatli o'chirildi")
	return nil
}

func (b *Bot) handleEditCallback(ctx context.Context, ev Event, s *session.Session) error {
	test, err := b.store.GetTest(ctx, ev.Callback.Arg)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, ev.UserID, msgTestNotFound)
		return nil
	}
	if err != nil {
		return err
	}
	if !b.mayManage(test, ev.UserID) {
		b.reply(ctx, ev.UserID, "❌ Siz faqat o'zingiz yaratgan testlarni tahrirlashingiz mumkin")
		return nil
	}
	return b.EnterScene(ctx, SceneEditTest, &session.Edit{TestID: test.ID}, ev, s)
}

func (b *Bot) handleDownloadCallback(ctx context.Context, ev Event) error {
	test, err := b.store.GetTest(ctx, ev.Callback.Arg)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(ctx, ev.UserID, msgTestNotFound)
		return nil
	}
	if err != nil {
		return err
	}

	b.reply(ctx, ev.UserID, "📊 Natijalar yuklanmoqda...")

	results, err := b.store.ListResultsByTest(ctx, test.ID, store.OrderByScoreDesc)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		b.reply(ctx, ev.UserID, "❌ Bu test uchun hali natijalar yo'q")
		return nil
	}

	now := b.now()
	content := report.Build(test, results)
	filename := report.Filename(test.Title, now)
	caption := fmt.Sprintf("📄 %s\n📅 %s", test.Title, now.Format(deadlineLayout))
	if err := b.transport.SendDocument(ctx, ev.UserID, filename, content, caption); err != nil {
		return err
	}
	b.reply(ctx, ev.UserID, "✅ Natijalar muvaffaqiyatli yuklandi!")
	return nil
}

func (b *Bot) handleStudents(ctx context.Context, ev Event) error {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return nil
	}
	students, err := b.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha o'quvchilar yo'q")
		return nil
	}
	for i, st := range students {
		b.replyWith(ctx, ev.UserID,
			fmt.Sprintf("👤 %d. %s\n📱 Telefon: %s\n🆔 ID: %d", i+1, st.FullName(), st.PhoneNumber, st.TelegramID),
			&Markup{Inline: [][]InlineButton{{{
				Text: "🗑 O'chirish",
				Data: CallbackData(ActionDeleteStudent, strconv.FormatInt(st.TelegramID, 10)),
			}}}})
	}
	return nil
}

func (b *Bot) handleDeleteStudent(ctx context.Context, ev Event) error {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return nil
	}
	studentID, err := strconv.ParseInt(ev.Callback.Arg, 10, 64)
	if err != nil {
		b.reply(ctx, ev.UserID, "❌ Bunday o'quvchi topilmadi.")
		return nil
	}
	student, err := b.store.GetUser(ctx, studentID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && student.Role != store.RoleStudent) {
		b.reply(ctx, ev.UserID, "❌ Bunday o'quvchi topilmadi.")
		return nil
	}
	if err != nil {
		return err
	}
	// Cascades the student's results.
	if err := b.store.DeleteUser(ctx, studentID); err != nil {
		return err
	}
	b.reply(ctx, ev.UserID, fmt.Sprintf("✅ %s muvaffaqiyatli o'chirildi!", student.FullName()))
	return nil
}

func (b *Bot) handleBroadcastPrompt(ctx context.Context, ev Event, s *session.Session) error {
	if !b.isTeacher(ev.UserID) {
		b.reply(ctx, ev.UserID, msgNoRights)
		return nil
	}
	b.reply(ctx, ev.UserID, "Hammaga yuboriladigan xabarni yozing (faqat matn):")
	s.AwaitingBroadcast = true
	return nil
}

func (b *Bot) handleBroadcastSend(ctx context.Context, ev Event, s *session.Session) error {
	s.AwaitingBroadcast = false
	students, err := b.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha o'quvchilar yo'q.")
		b.showMainMenu(ctx, ev.UserID, store.RoleTeacher)
		return nil
	}

	text := "📢 O'qituvchidan xabar\n\n" + ev.Text
	sent := 0
	for _, st := range students {
		if err := b.transport.SendText(ctx, st.TelegramID, text, nil); err != nil {
			log.Printf("broadcast to %d failed: %v", st.TelegramID, err)
			continue
		}
		sent++
	}
	b.reply(ctx, ev.UserID, fmt.Sprintf("✅ Xabar %d/%d o'quvchiga yuborildi.", sent, len(students)))
	b.showMainMenu(ctx, ev.UserID, store.RoleTeacher)
	return nil
}

func (b *Bot) handleOpenTests(ctx context.Context, ev Event) error {
	tests, err := b.store.ListOpenTests(ctx, b.now())
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha mavjud testlar yo'q")
		return nil
	}
	for _, test := range tests {
		status := "🆕 Yangi"
		button := "✍️ Testni boshlash"
		if r, err := b.store.GetResult(ctx, ev.UserID, test.ID); err == nil {
			status = fmt.Sprintf("✅ Ishlangan (%.1f%%)", r.Score)
			button = status
		}
		b.replyWith(ctx, ev.UserID, b.testCard(ctx, test)+"\n📊 Holat: "+status, &Markup{
			Inline: [][]InlineButton{{{Text: button, Data: CallbackData(ActionTake, test.ID)}}},
		})
	}
	return nil
}

func (b *Bot) handleMyResults(ctx context.Context, ev Event) error {
	results, err := b.store.ListResultsByUser(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		b.reply(ctx, ev.UserID, "📭 Hozircha natijalar yo'q")
		return nil
	}
	var sb strings.Builder
	sb.WriteString("🎯 Sizning natijalaringiz:\n\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "📋 %s\n%s Ball: %.1f%%\n📅 Topshirilgan vaqt: %s\n\n",
			r.TestTitle, scoreColor(r.Score), r.Score, r.SubmittedAt.Format(deadlineLayout))
	}
	b.reply(ctx, ev.UserID, sb.String())
	return nil
}
