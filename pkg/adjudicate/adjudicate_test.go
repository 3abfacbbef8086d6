package adjudicate

import (
	"context"
	"strings"
	"testing"
)

func TestRejectDecider(t *testing.T) {
	got, err := RejectDecider{}.Decide(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if got {
		t.Error("RejectDecider accepted a pair")
	}
}

func TestNewDecider(t *testing.T) {
	// Non-interactive runs must not go through the pair cache: a default
	// rejection recorded there would silence a later interactive run.
	d := NewDecider(nil, 1, false, strings.NewReader(""), &strings.Builder{}, nil)
	if _, ok := d.(RejectDecider); !ok {
		t.Errorf("non-interactive decider = %T, want RejectDecider", d)
	}

	d = NewDecider(nil, 1, true, strings.NewReader(""), &strings.Builder{}, nil)
	cached, ok := d.(*CachedDecider)
	if !ok {
		t.Fatalf("interactive decider = %T, want *CachedDecider", d)
	}
	if _, ok := cached.Next.(*ConsoleDecider); !ok {
		t.Errorf("cached decider wraps %T, want *ConsoleDecider", cached.Next)
	}
}

func TestConsoleDecider(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{name: "yes", answer: "yes\n", want: true},
		{name: "y", answer: "Y\n", want: true},
		{name: "no", answer: "no\n", want: false},
		{name: "anything else", answer: "maybe\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			d := &ConsoleDecider{In: strings.NewReader(tt.answer), Out: &out}
			got, err := d.Decide(context.Background(), "line1", "line2")
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "line1") {
				t.Error("prompt does not show the pair")
			}
		})
	}
}
