// Package telegram adapts the messaging transport contract to the Telegram
// Bot API via telebot. All inbound updates are decoded into bot.Event here;
// nothing behind this package knows about Telegram types.
package telegram

import (
	"bytes"
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sinovhub/sinovbot/internal/bot"
)

// Handler consumes decoded events; in production it is (*bot.Bot).HandleEvent.
type Handler interface {
	HandleEvent(ctx context.Context, ev bot.Event)
}

type Adapter struct {
	tb      *tele.Bot
	handler Handler
	ctx     context.Context
}

func New(token string, handler Handler) (*Adapter, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	a := &Adapter{tb: tb, handler: handler, ctx: context.Background()}
	a.wire()
	return a, nil
}

// Run polls until ctx is canceled.
func (a *Adapter) Run(ctx context.Context) {
	a.ctx = ctx
	go func() {
		<-ctx.Done()
		a.tb.Stop()
	}()
	a.tb.Start()
}

func (a *Adapter) wire() {
	a.tb.Handle("/start", func(c tele.Context) error {
		a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindCommand, Command: "start"})
		return nil
	})
	a.tb.Handle(tele.OnText, func(c tele.Context) error {
		a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindText, Text: c.Text()})
		return nil
	})
	a.tb.Handle(tele.OnDocument, func(c tele.Context) error {
		a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindDocument, FileID: c.Message().Document.FileID})
		return nil
	})
	a.tb.Handle(tele.OnPhoto, func(c tele.Context) error {
		// telebot already keeps only the largest resolution.
		a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindPhoto, FileID: c.Message().Photo.FileID})
		return nil
	})
	a.tb.Handle(tele.OnContact, func(c tele.Context) error {
		contact := c.Message().Contact
		a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindContact, Contact: &bot.Contact{
			UserID:      contact.UserID,
			PhoneNumber: contact.PhoneNumber,
		}})
		return nil
	})
	a.tb.Handle(tele.OnCallback, func(c tele.Context) error {
		data := strings.TrimPrefix(c.Callback().Data, "\f")
		if cb, ok := bot.DecodeCallback(data); ok {
			a.dispatch(bot.Event{UserID: c.Sender().ID, Kind: bot.KindCallback, Callback: &cb})
		}
		return c.Respond(&tele.CallbackResponse{})
	})
}

func (a *Adapter) dispatch(ev bot.Event) {
	a.handler.HandleEvent(a.ctx, ev)
}

// --- bot.Transport ---

func (a *Adapter) SendText(_ context.Context, userID int64, text string, markup *bot.Markup) error {
	if m := toTeleMarkup(markup); m != nil {
		_, err := a.tb.Send(tele.ChatID(userID), text, m)
		return err
	}
	_, err := a.tb.Send(tele.ChatID(userID), text)
	return err
}

func (a *Adapter) SendFileRef(_ context.Context, userID int64, fileID, caption string) error {
	doc := &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	_, err := a.tb.Send(tele.ChatID(userID), doc)
	return err
}

func (a *Adapter) SendDocument(_ context.Context, userID int64, filename string, data []byte, caption string) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: filename,
		Caption:  caption,
	}
	_, err := a.tb.Send(tele.ChatID(userID), doc)
	return err
}

func (a *Adapter) ChatMember(_ context.Context, channel string, userID int64) (bot.MemberStatus, error) {
	member, err := a.tb.ChatMemberOf(chatRef(channel), &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return bot.MemberStatus(member.Role), nil
}

// chatRef addresses a channel by its @username.
type chatRef string

func (r chatRef) Recipient() string { return string(r) }

func toTeleMarkup(m *bot.Markup) *tele.ReplyMarkup {
	if m == nil {
		return nil
	}
	out := &tele.ReplyMarkup{
		ResizeKeyboard:  m.ResizeKeyboard,
		OneTimeKeyboard: m.OneTime,
		RemoveKeyboard:  m.RemoveKeyboard,
	}
	for _, row := range m.Inline {
		var teleRow []tele.InlineButton
		for _, btn := range row {
			teleRow = append(teleRow, tele.InlineButton{Text: btn.Text, Data: btn.Data, URL: btn.URL})
		}
		out.InlineKeyboard = append(out.InlineKeyboard, teleRow)
	}
	for _, row := range m.Reply {
		var teleRow []tele.ReplyButton
		for _, btn := range row {
			teleRow = append(teleRow, tele.ReplyButton{Text: btn.Text, Contact: btn.RequestContact})
		}
		out.ReplyKeyboard = append(out.ReplyKeyboard, teleRow)
	}
	return out
}
