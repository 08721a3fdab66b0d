package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"manaclient/chat"
)

func TestConsoleLogFormats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewConsoleLog(&buf)
	l.AddWhisper("Alice", "hi", chat.OwnPlayer)
	l.AddWhisper("Bob", "yo", chat.OwnWhisper)
	l.Add("server restart", chat.OwnServer, "")
	l.Add("Carol : hello", chat.OwnOther, "trade")
	l.ConnectionLost("EOF")

	want := "[to Alice] hi\n[Bob] yo\n* server restart\n#trade Carol : hello\n*** connection lost: EOF\n"
	if buf.String() != want {
		t.Fatalf("expected %q, got %q", want, buf.String())
	}
}

func TestRunDisconnectsQuietlyOnShutdown(t *testing.T) {
	t.Parallel()

	notifier := &countingNotifier{}
	s, _ := newTestSession(t, &pipeDialer{}, notifier)
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if s.Connected() {
		t.Fatalf("Run should disconnect on return")
	}
	if len(notifier.reasons) != 0 {
		t.Fatalf("shutdown must not post a notice, got %v", notifier.reasons)
	}
	if s.TickSeq() == 0 {
		t.Fatalf("expected ticks while running")
	}
}

func TestConnectRetryGivesUp(t *testing.T) {
	t.Parallel()

	attempts := 0
	s, err := NewSession(Config{Server: "tcp://game:5122", Dialect: "tmwa"}, Options{
		Dial: func(context.Context, string) (io.ReadWriteCloser, error) {
			attempts++
			return nil, errors.New("refused")
		},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.ConnectRetry(context.Background(), 2, time.Millisecond); err == nil {
		t.Fatalf("expected connect error")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
