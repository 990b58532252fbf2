package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	Category struct {
		ID        string    `json:"id" yaml:"id"`
		Name      string    `json:"name" yaml:"name"`
		Color     string    `json:"color" yaml:"color"`
		CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	}

	// Expense is immutable once created, except that CategoryID is cleared
	// when its category is deleted.
	Expense struct {
		ID         string    `json:"id" yaml:"id"`
		Name       string    `json:"name" yaml:"name"`
		Amount     string    `json:"amount" yaml:"amount"` // exact decimal string, e.g. "12.50"
		Details    *string   `json:"details" yaml:"details"`
		CategoryID *string   `json:"categoryId" yaml:"categoryId"`
		Date       Date      `json:"date" yaml:"date"`
		CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	}

	// ExpenseWithCategory carries the category resolved at query time.
	// Category is nil when the expense is uncategorized or its id dangles.
	ExpenseWithCategory struct {
		Expense  `yaml:",inline"`
		Category *Category `json:"category" yaml:"category"`
	}

	CategoryInput struct {
		Name  string
		Color string
	}

	ExpenseInput struct {
		Name       string
		Amount     string
		Details    string // empty means absent
		CategoryID string // empty means absent
		Date       Date
	}

	// Snapshot is the full content of a store.
	Snapshot struct {
		Categories []Category `json:"categories" yaml:"categories"`
		Expenses   []Expense  `json:"expenses" yaml:"expenses"`
	}
)

// ValidationError reports an input that a store or the entry path rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

var (
	ErrEmptyName       = &ValidationError{Field: "name", Reason: "must not be empty"}
	ErrEmptyColor      = &ValidationError{Field: "color", Reason: "must not be empty"}
	ErrEmptyAmount     = &ValidationError{Field: "amount", Reason: "must not be empty"}
	ErrEmptyDate       = &ValidationError{Field: "date", Reason: "must not be empty"}
	ErrInvalidAmount   = &ValidationError{Field: "amount", Reason: "must be a positive number"}
	ErrInvalidDate     = &ValidationError{Field: "date", Reason: "must be a calendar date in YYYY-MM-DD format"}
	ErrUnknownCategory = &ValidationError{Field: "categoryId", Reason: "does not reference an existing category"}
)

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NewID returns a fresh opaque identifier. Tests may replace it.
var NewID = func() string {
	return uuid.NewString()
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(in.Color) == "" {
		return ErrEmptyColor
	}
	return nil
}

// Validate checks the store-level invariants: required fields present.
// Amount parsing is the entry path's job (see ParseAmount).
func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(in.Amount) == "" {
		return ErrEmptyAmount
	}
	if in.Date == "" {
		return ErrEmptyDate
	}
	return nil
}

// NewCategory builds a category from validated input.
func NewCategory(in CategoryInput, now time.Time) Category {
	return Category{
		ID:        NewID(),
		Name:      strings.TrimSpace(in.Name),
		Color:     strings.TrimSpace(in.Color),
		CreatedAt: now,
	}
}

// NewExpense builds an expense from validated input.
func NewExpense(in ExpenseInput, now time.Time) Expense {
	return Expense{
		ID:         NewID(),
		Name:       strings.TrimSpace(in.Name),
		Amount:     strings.TrimSpace(in.Amount),
		Details:    optional(in.Details),
		CategoryID: optional(in.CategoryID),
		Date:       in.Date,
		CreatedAt:  now,
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// HasCategory reports whether the expense references a category.
func (e Expense) HasCategory() bool {
	return e.CategoryID != nil && *e.CategoryID != ""
}

// CategoryIDOrEmpty returns the category id, or "" when absent.
func (e Expense) CategoryIDOrEmpty() string {
	if e.CategoryID == nil {
		return ""
	}
	return *e.CategoryID
}

// DetailsOrEmpty returns the details, or "" when absent.
func (e Expense) DetailsOrEmpty() string {
	if e.Details == nil {
		return ""
	}
	return *e.Details
}

// Detach returns a copy of the expense with no category.
func (e Expense) Detach() Expense {
	e.CategoryID = nil
	return e
}

// Enrich joins expenses with the categories they reference.
func Enrich(expenses []Expense, categories []Category) []ExpenseWithCategory {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	out := make([]ExpenseWithCategory, 0, len(expenses))
	for _, e := range expenses {
		ewc := ExpenseWithCategory{Expense: e}
		if e.HasCategory() {
			if c, ok := byID[*e.CategoryID]; ok {
				c := c
				ewc.Category = &c
			}
		}
		out = append(out, ewc)
	}
	return out
}

// HasCategoryID reports whether id names one of the categories.
func HasCategoryID(categories []Category, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// DefaultCategories is the set a fresh store is seeded with.
func DefaultCategories() []CategoryInput {
	return []CategoryInput{
		{Name: "Food", Color: "#EF4444"},
		{Name: "Transport", Color: "#3B82F6"},
		{Name: "Shopping", Color: "#10B981"},
		{Name: "Entertainment", Color: "#F59E0B"},
	}
}
