package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dailyspend/internal/core"
)

// EventType names what happened to a record.
type EventType string

const (
	ExpenseCreated  EventType = "expense.created"
	ExpenseDeleted  EventType = "expense.deleted"
	CategoryDeleted EventType = "category.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case ExpenseCreated, ExpenseDeleted, CategoryDeleted:
		return true
	default:
		return false
	}
}

// ExpenseEvent is published after a store mutation succeeds. Created events
// carry the full expense so consumers never need to read the store.
type ExpenseEvent struct {
	Type       EventType                 `json:"type"`
	ExpenseID  string                    `json:"expenseId,omitempty"`
	CategoryID string                    `json:"categoryId,omitempty"`
	Expense    *core.ExpenseWithCategory `json:"expense,omitempty"`
	Timestamp  time.Time                 `json:"timestamp"`
}

func NewExpenseCreatedEvent(e core.ExpenseWithCategory) *ExpenseEvent {
	return &ExpenseEvent{
		Type:       ExpenseCreated,
		ExpenseID:  e.ID,
		CategoryID: e.CategoryIDOrEmpty(),
		Expense:    &e,
		Timestamp:  time.Now(),
	}
}

func NewExpenseDeletedEvent(id string) *ExpenseEvent {
	return &ExpenseEvent{Type: ExpenseDeleted, ExpenseID: id, Timestamp: time.Now()}
}

func NewCategoryDeletedEvent(id string) *ExpenseEvent {
	return &ExpenseEvent{Type: CategoryDeleted, CategoryID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	switch msg.Type {
	case ExpenseCreated:
		if msg.Expense == nil {
			return nil, fmt.Errorf("%s event without expense", msg.Type)
		}
	case ExpenseDeleted:
		if msg.ExpenseID == "" {
			return nil, fmt.Errorf("%s event without expense id", msg.Type)
		}
	case CategoryDeleted:
		if msg.CategoryID == "" {
			return nil, fmt.Errorf("%s event without category id", msg.Type)
		}
	}
	return &msg, nil
}
