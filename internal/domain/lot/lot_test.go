package lot

import (
	"testing"
	"time"
)

func TestDueToActivate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		status Status
		start  time.Time
		want   bool
	}{
		{"pending past start", StatusPending, now.Add(-time.Minute), true},
		{"pending at start", StatusPending, now, true},
		{"pending future start", StatusPending, now.Add(time.Minute), false},
		{"already active", StatusActive, now.Add(-time.Minute), false},
		{"finished", StatusFinished, now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		l := &Lot{Status: tt.status, StartTime: tt.start}
		if got := l.DueToActivate(now); got != tt.want {
			t.Errorf("%s: DueToActivate() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDueToClose(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name   string
		status Status
		end    *time.Time
		want   bool
	}{
		{"active past deadline", StatusActive, &past, true},
		{"active before deadline", StatusActive, &future, false},
		{"active without deadline", StatusActive, nil, false},
		{"pending past deadline", StatusPending, &past, false},
		{"finished", StatusFinished, &past, false},
	}

	for _, tt := range tests {
		l := &Lot{Status: tt.status, EndTime: tt.end}
		if got := l.DueToClose(now); got != tt.want {
			t.Errorf("%s: DueToClose() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMinimumBid(t *testing.T) {
	l := &Lot{CurrentPrice: 100}
	if got := l.MinimumBid(50); got != 150 {
		t.Fatalf("MinimumBid(50) = %v, want 150", got)
	}
}

func TestTimeLeft(t *testing.T) {
	now := time.Now()

	l := &Lot{}
	if got := l.TimeLeft(now); got != 0 {
		t.Fatalf("TimeLeft() without deadline = %v, want 0", got)
	}

	past := now.Add(-time.Minute)
	l.EndTime = &past
	if got := l.TimeLeft(now); got != 0 {
		t.Fatalf("TimeLeft() past deadline = %v, want 0", got)
	}

	future := now.Add(time.Minute)
	l.EndTime = &future
	if got := l.TimeLeft(now); got != time.Minute {
		t.Fatalf("TimeLeft() = %v, want 1m", got)
	}
}
