package bot

import "context"

// MemberStatus is the platform's chat membership answer.
type MemberStatus string

const (
	MemberCreator       MemberStatus = "creator"
	MemberAdministrator MemberStatus = "administrator"
	MemberMember        MemberStatus = "member"
	MemberLeft          MemberStatus = "left"
	MemberKicked        MemberStatus = "kicked"
	MemberRestricted    MemberStatus = "restricted"
)

// Subscribed reports whether the status counts as channel membership.
func (s MemberStatus) Subscribed() bool {
	switch s {
	case MemberCreator, MemberAdministrator, MemberMember:
		return true
	}
	return false
}

type InlineButton struct {
	Text string
	Data string // callback payload, "action_arg"
	URL  string
}

type ReplyButton struct {
	Text           string
	RequestContact bool
}

// Markup describes an outbound keyboard. At most one of Inline, Reply or
// RemoveKeyboard is set.
type Markup struct {
	Inline         [][]InlineButton
	Reply          [][]ReplyButton
	ResizeKeyboard bool
	OneTime        bool
	RemoveKeyboard bool
}

// Transport is the messaging platform seen from the bot's side. The real
// implementation lives in internal/bot/telegram; tests use a fake.
type Transport interface {
	SendText(ctx context.Context, userID int64, text string, markup *Markup) error
	// SendFileRef re-sends a platform-hosted file by its reference.
	SendFileRef(ctx context.Context, userID int64, fileID, caption string) error
	// SendDocument uploads an in-memory document.
	SendDocument(ctx context.Context, userID int64, filename string, data []byte, caption string) error
	ChatMember(ctx context.Context, channel string, userID int64) (MemberStatus, error)
}
