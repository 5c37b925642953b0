package app

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNotifyOutbidDeliversToAllOthers(t *testing.T) {
	notifier := newFakeNotifier()
	fanout := NewFanout(FanoutParams{Notifier: notifier, Logger: zerolog.Nop()})

	fanout.NotifyOutbid(5, 300, 450, []int64{100, 200, 300})
	fanout.Stop()

	for _, userID := range []int64{100, 200} {
		got := notifier.messagesFor(userID)
		if len(got) != 1 {
			t.Fatalf("messages for user %d = %d, want 1", userID, len(got))
		}
		if !strings.Contains(got[0], "lot #5") || !strings.Contains(got[0], "450.00") {
			t.Fatalf("message %q missing lot or price", got[0])
		}
	}
	if got := notifier.messagesFor(300); len(got) != 0 {
		t.Fatalf("messages for new bidder = %d, want 0", len(got))
	}
}

func TestNotifyOutbidFailureIsIsolated(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.failFor[100] = true
	fanout := NewFanout(FanoutParams{Notifier: notifier, Logger: zerolog.Nop()})

	fanout.NotifyOutbid(5, 300, 450, []int64{100, 200})
	fanout.Stop()

	if got := notifier.messagesFor(200); len(got) != 1 {
		t.Fatalf("messages for healthy recipient = %d, want 1", len(got))
	}
}

func TestNotifyWinnerMessage(t *testing.T) {
	notifier := newFakeNotifier()
	fanout := NewFanout(FanoutParams{Notifier: notifier, Logger: zerolog.Nop()})

	fanout.NotifyWinner(7, 42, 1250, 15*time.Minute)
	fanout.Stop()

	got := notifier.messagesFor(42)
	if len(got) != 1 {
		t.Fatalf("messages for winner = %d, want 1", len(got))
	}
	for _, want := range []string{"lot #7", "1250.00", "15 minutes", "pay_7_42"} {
		if !strings.Contains(got[0], want) {
			t.Fatalf("winner message %q missing %q", got[0], want)
		}
	}
}
