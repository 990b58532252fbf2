package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dailyspend/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	t.Run("initial state is closed", func(t *testing.T) {
		if client.isCircuitOpen() {
			t.Error("Circuit breaker should be closed initially")
		}
	})

	t.Run("multiple failures open circuit", func(t *testing.T) {
		for i := 0; i < maxFailures; i++ {
			client.recordFailure()
		}
		if !client.isCircuitOpen() {
			t.Error("Circuit breaker should be open after max failures")
		}
	})

	t.Run("circuit transitions to half-open after timeout", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now().Add(-openTimeout - time.Second)

		if client.isCircuitOpen() {
			t.Error("Circuit should transition to half-open after timeout")
		}
		if atomic.LoadInt32(&client.state) != StateHalfOpen {
			t.Error("State should be StateHalfOpen after timeout")
		}
	})

	t.Run("record success resets state", func(t *testing.T) {
		atomic.StoreInt64(&client.failureCount, 3)
		atomic.StoreInt32(&client.state, StateOpen)

		client.recordSuccess()

		if atomic.LoadInt64(&client.failureCount) != 0 {
			t.Error("Failure count should be reset to 0 after success")
		}
		if atomic.LoadInt32(&client.state) != StateClosed {
			t.Error("State should be StateClosed after success")
		}
	})
}

func TestClient_Publish_Guards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	event := NewExpenseDeletedEvent("exp-1")

	t.Run("fails when circuit is open", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure = time.Now()

		err := client.Publish(context.Background(), event)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("expected ErrCircuitOpen, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		client.recordSuccess()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := client.Publish(ctx, event); err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("fails without a channel", func(t *testing.T) {
		client.recordSuccess()
		err := client.Publish(context.Background(), event)
		if err == nil || !strings.Contains(err.Error(), "channel not open") {
			t.Errorf("expected channel error, got %v", err)
		}
	})
}

func TestExpenseEvent_JSON(t *testing.T) {
	cat := "food"
	e := core.ExpenseWithCategory{
		Expense:  core.Expense{ID: "exp-1", Name: "Lunch", Amount: "12.50", Date: "2024-01-15", CategoryID: &cat},
		Category: &core.Category{ID: "food", Name: "Food", Color: "#EF4444"},
	}
	msg := NewExpenseCreatedEvent(e)
	if msg.CategoryID != "food" || msg.ExpenseID != "exp-1" {
		t.Fatalf("unexpected ids: %+v", msg)
	}

	b, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := ExpenseEventFromJSON(b)
	if err != nil {
		t.Fatalf("ExpenseEventFromJSON() error = %v", err)
	}
	if parsed.Type != ExpenseCreated {
		t.Errorf("type = %v", parsed.Type)
	}
	if parsed.Expense == nil || parsed.Expense.Amount != "12.50" || parsed.Expense.Category.Name != "Food" {
		t.Errorf("expense not preserved: %+v", parsed.Expense)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestExpenseEventFromJSON_Rejects(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `{"type": 1}`,
		"unknown type":       `{"type": "expense.updated", "expenseId": "x"}`,
		"created no payload": `{"type": "expense.created", "expenseId": "x"}`,
		"deleted no id":      `{"type": "expense.deleted"}`,
		"category no id":     `{"type": "category.deleted"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ExpenseEventFromJSON([]byte(body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestClient_ClosedClientDoesNotReconnect(t *testing.T) {
	client := &Client{url: "amqp://127.0.0.1:1/", exchangeName: "test_exchange", queueName: "test_queue"}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := client.Publish(context.Background(), NewExpenseDeletedEvent("exp-1")); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Publish after Close = %v, want ErrClientClosed", err)
	}
	if client.triggerReconnect(0) {
		t.Error("closed client must not start a reconnect")
	}
	if err := client.reconnect(context.Background(), 0); !errors.Is(err, ErrClientClosed) {
		t.Errorf("reconnect after Close = %v, want ErrClientClosed", err)
	}
	if err := client.connect(); !errors.Is(err, ErrClientClosed) {
		t.Errorf("connect after Close = %v, want ErrClientClosed", err)
	}
}

func TestClient_SingleBackgroundReconnect(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	client.reconnecting.Store(true)

	if client.triggerReconnect(0) {
		t.Error("a second reconnect must not start while one is running")
	}
}

func TestClient_ReconnectSkipsReplacedConnection(t *testing.T) {
	// An unreachable URL: any dial attempt would fail and back off.
	client := &Client{url: "amqp://127.0.0.1:1/", exchangeName: "test_exchange", queueName: "test_queue", gen: 2}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.reconnect(ctx, 1); err != nil {
		t.Errorf("reconnect for a stale generation = %v, want nil", err)
	}
	if _, gen := client.current(); gen != 2 {
		t.Errorf("generation = %d, want 2", gen)
	}
}
