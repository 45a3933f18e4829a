package telegram

import (
	"emtbot/pkg/bot"
	"emtbot/pkg/emt"

	"github.com/go-telegram/bot/models"
)

func replyKeyboard(keyboard emt.Keyboard, resize bool) *models.ReplyKeyboardMarkup {
	rows := make([][]models.KeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]models.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, models.KeyboardButton{Text: label})
		}
		rows = append(rows, buttons)
	}
	return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: resize}
}

// toMessage converts an update into the chat message the router understands.
// Updates that are neither text nor location are skipped.
func toMessage(u *models.Update) (bot.Message, bool) {
	if u == nil || u.Message == nil {
		return bot.Message{}, false
	}
	m := u.Message
	if m.Text == "" && m.Location == nil {
		return bot.Message{}, false
	}

	msg := bot.Message{
		Chat: bot.Chat{ID: m.Chat.ID, MessageID: int64(m.ID)},
		Text: m.Text,
	}
	if m.From != nil {
		msg.Chat.SenderID = m.From.ID
		msg.Chat.Username = m.From.Username
	}
	if m.Location != nil {
		msg.Location = &emt.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	}
	return msg, true
}
