package telegram

import (
	"strconv"
	"strings"
)

// Update is one normalized inbound webhook payload from the Bot API.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound chat message
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies the conversation the message belongs to
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery is a button press; Data carries the command string the
// button was wired with.
type CallbackQuery struct {
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// Command extracts the chat id and command text from the update. A
// callback's data feeds the same router as typed text. Returns ok=false
// when the update carries neither a message nor a callback.
func (u *Update) Command() (chatID, text string, ok bool) {
	if u.CallbackQuery != nil && u.CallbackQuery.Message != nil {
		return strconv.FormatInt(u.CallbackQuery.Message.Chat.ID, 10), u.CallbackQuery.Data, true
	}
	if u.Message != nil {
		return strconv.FormatInt(u.Message.Chat.ID, 10), strings.TrimSpace(u.Message.Text), true
	}
	return "", "", false
}

// InlineKeyboardMarkup is the reply_markup attached to outbound messages
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is one button in an inline keyboard
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}
