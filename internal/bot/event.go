package bot

import "strings"

type EventKind int

const (
	KindText EventKind = iota
	KindCommand
	KindDocument
	KindPhoto
	KindContact
	KindCallback
)

type Contact struct {
	UserID      int64
	PhoneNumber string
}

// Callback is an inline-button press, decoded from "action_arg" payloads
// once at the transport boundary.
type Callback struct {
	Action string
	Arg    string
}

// Event is one decoded inbound platform event. Exactly the fields implied by
// Kind are set.
type Event struct {
	UserID   int64
	Kind     EventKind
	Command  string // without the leading slash
	Text     string
	FileID   string // largest-resolution reference for photos
	Contact  *Contact
	Callback *Callback
}

// Callback actions.
const (
	ActionTake          = "take"
	ActionEdit          = "edit"
	ActionResults       = "results"
	ActionDelete        = "delete"
	ActionDownload      = "download"
	ActionDeleteStudent = "delete_student"
)

// DecodeCallback splits raw callback data into an action token and its
// argument. "delete_student_42" decodes to (delete_student, 42).
func DecodeCallback(data string) (Callback, bool) {
	if arg, ok := strings.CutPrefix(data, ActionDeleteStudent+"_"); ok {
		return Callback{Action: ActionDeleteStudent, Arg: arg}, true
	}
	for _, action := range []string{ActionTake, ActionEdit, ActionResults, ActionDelete, ActionDownload} {
		if arg, ok := strings.CutPrefix(data, action+"_"); ok {
			return Callback{Action: action, Arg: arg}, true
		}
	}
	return Callback{}, false
}

// CallbackData builds the payload for an inline button.
func CallbackData(action, arg string) string {
	return action + "_" + arg
}
