package bot

import (
	"context"

	"github.com/sinovhub/sinovbot/internal/store"
)

// Main menu button labels. Inbound text is matched against these exact
// strings, so they live in one place.
const (
	menuCreateTest  = "📝 Test yaratish"
	menuManageTests = "📊 Testlarni boshqarish"
	menuViewResults = "📈 Natijalarni ko'rish"
	menuStudents    = "👩‍🎓 O'quvchilar haqida"
	menuBroadcast   = "📢 Hammaga xabar yuborish"

	menuOpenTests = "📚 Mavjud testlar"
	menuMyResults = "🎯 Mening natijalarim"
)

// Multi-file sentinel and edit cancel token, matched case-insensitively.
const (
	tokenDone   = "tayyor"
	tokenCancel = "bekor"
)

const (
	msgGenericError = "❌ Xatolik yuz berdi. Iltimos qayta urinib ko'ring."
	msgNoRights     = "❌ Sizda o'qituvchi huquqlari yo'q"
	msgTestNotFound = "❌ Test topilmadi"
)

func (b *Bot) showMainMenu(ctx context.Context, userID int64, role store.Role) {
	var rows [][]ReplyButton
	if role == store.RoleTeacher {
		rows = [][]ReplyButton{
			{{Text: menuCreateTest}},
			{{Text: menuManageTests}},
			{{Text: menuViewResults}},
			{{Text: menuStudents}},
			{{Text: menuBroadcast}},
		}
	} else {
		rows = [][]ReplyButton{
			{{Text: menuOpenTests}},
			{{Text: menuMyResults}},
		}
	}
	b.replyWith(ctx, userID, "📱 Asosiy menyu:", &Markup{Reply: rows, ResizeKeyboard: true})
}

func (b *Bot) roleOf(userID int64) store.Role {
	if b.isTeacher(userID) {
		return store.RoleTeacher
	}
	return store.RoleStudent
}
