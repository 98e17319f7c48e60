package telegram

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Workers: 1})
	defer d.Close()

	var ran atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send_text", func() error {
		ran.Add(1)
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	if got := ran.Load(); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Workers: 1, MaxRetries: 0})

	_ = d.Enqueue(context.Background(), "send_text", func() error {
		return errors.New("chat not found (400)")
	})
	d.Close()

	if got := d.ErrorCount(); got != 1 {
		t.Errorf("error count = %d, want 1", got)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Workers: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "send_text", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Errorf("err = %v, want ErrQueueClosed", err)
	}
}

func TestRedactToken(t *testing.T) {
	in := "Post \"https://api.telegram.org/bot123456:AAHdqTcvbXYZ-abc_def/sendMessage\": EOF"
	got := RedactToken(in)
	if got == in {
		t.Fatal("token not redacted")
	}
	if want := "bot<redacted>"; !strings.Contains(got, want) {
		t.Errorf("redacted message %q missing %q", got, want)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"http 400 from message", errors.New("telegram: chat not found (400)"), "http_4xx"},
		{"http 502 from message", errors.New("telegram: bad gateway (502)"), "http_5xx"},
		{"opaque", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestReplyMarkup(t *testing.T) {
	if replyMarkup(nil) != nil {
		t.Error("nil menu should produce nil markup")
	}

	markup := replyMarkup([][]string{{"a", "b"}, {"c"}})
	if markup == nil {
		t.Fatal("expected markup")
	}
	if !markup.ResizeKeyboard {
		t.Error("keyboard should be resized")
	}
	if len(markup.ReplyKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.ReplyKeyboard))
	}
	if len(markup.ReplyKeyboard[0]) != 2 || len(markup.ReplyKeyboard[1]) != 1 {
		t.Errorf("row sizes = %d/%d, want 2/1",
			len(markup.ReplyKeyboard[0]), len(markup.ReplyKeyboard[1]))
	}
	if markup.ReplyKeyboard[0][0].Text != "a" {
		t.Errorf("first button = %q, want a", markup.ReplyKeyboard[0][0].Text)
	}
}
