package gate

import (
	"errors"
	"testing"
	"time"

	"cenolover-auction-engine/internal/domain/shared"

	"github.com/rs/zerolog"
)

func newTestGate(limit int, window time.Duration) *Gate {
	return NewGate(GateParams{
		Limit:  limit,
		Window: window,
		Logger: zerolog.Nop(),
	})
}

func TestAdmitWithinLimit(t *testing.T) {
	g := newTestGate(3, time.Second)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := g.Admit(42, now.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("Admit() action %d error: %v", i+1, err)
		}
	}
}

func TestAdmitRejectsOverLimit(t *testing.T) {
	g := newTestGate(3, time.Second)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := g.Admit(42, now); err != nil {
			t.Fatalf("Admit() action %d error: %v", i+1, err)
		}
	}

	err := g.Admit(42, now.Add(time.Millisecond))
	if !errors.Is(err, shared.ErrRateLimited) {
		t.Fatalf("Admit() over limit = %v, want ErrRateLimited", err)
	}
}

func TestAdmitReadmitsAfterWindow(t *testing.T) {
	g := newTestGate(2, time.Second)
	now := time.Now()

	if err := g.Admit(42, now); err != nil {
		t.Fatalf("Admit() error: %v", err)
	}
	if err := g.Admit(42, now); err != nil {
		t.Fatalf("Admit() error: %v", err)
	}
	if err := g.Admit(42, now.Add(100*time.Millisecond)); !errors.Is(err, shared.ErrRateLimited) {
		t.Fatalf("Admit() inside window = %v, want ErrRateLimited", err)
	}

	// Both prior actions have left the trailing window
	if err := g.Admit(42, now.Add(1100*time.Millisecond)); err != nil {
		t.Fatalf("Admit() after window error: %v", err)
	}
}

func TestAdmitIsPerActor(t *testing.T) {
	g := newTestGate(1, time.Second)
	now := time.Now()

	if err := g.Admit(1, now); err != nil {
		t.Fatalf("Admit() actor 1 error: %v", err)
	}
	if err := g.Admit(1, now); !errors.Is(err, shared.ErrRateLimited) {
		t.Fatalf("Admit() actor 1 second action = %v, want ErrRateLimited", err)
	}

	// A different actor is unaffected
	if err := g.Admit(2, now); err != nil {
		t.Fatalf("Admit() actor 2 error: %v", err)
	}
}

func TestForgetResetsWindow(t *testing.T) {
	g := newTestGate(1, time.Minute)
	now := time.Now()

	if err := g.Admit(42, now); err != nil {
		t.Fatalf("Admit() error: %v", err)
	}
	g.Forget(42)
	if err := g.Admit(42, now); err != nil {
		t.Fatalf("Admit() after Forget() error: %v", err)
	}
}
