package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"kantong/internal/core"
)

// EntryLoggedMessage tells the streak worker that a user logged an expense.
// LoggedAt drives the streak; Timestamp is when the message was built.
type EntryLoggedMessage struct {
	UserID    string    `json:"userId"`
	ExpenseID string    `json:"expenseId"`
	LoggedAt  time.Time `json:"loggedAt"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryLoggedMessage(ev core.EntryLogged) *EntryLoggedMessage {
	return &EntryLoggedMessage{
		UserID:    ev.UserID,
		ExpenseID: ev.ExpenseID,
		LoggedAt:  ev.LoggedAt,
		Timestamp: time.Now(),
	}
}

// Event converts the message back to the domain event.
func (m *EntryLoggedMessage) Event() core.EntryLogged {
	return core.EntryLogged{UserID: m.UserID, ExpenseID: m.ExpenseID, LoggedAt: m.LoggedAt}
}

// ToJSON converts the message to JSON bytes
func (m *EntryLoggedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntryLoggedMessageFromJSON decodes and sanity-checks a message body.
func EntryLoggedMessageFromJSON(data []byte) (*EntryLoggedMessage, error) {
	var msg EntryLoggedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.LoggedAt.IsZero() {
		return nil, errors.New("entry logged message missing userId or loggedAt")
	}
	return &msg, nil
}
