package billing

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestPaymentDate(t *testing.T) {
	tests := []struct {
		name          string
		today         civil.Date
		dueDay        int
		policy        OverflowPolicy
		wantTarget    civil.Date
		wantThreshold int
	}{
		{
			name:          "normal day clamp",
			today:         civil.Date{Year: 2024, Month: time.May, Day: 26},
			dueDay:        25,
			policy:        OverflowClamp,
			wantTarget:    civil.Date{Year: 2024, Month: time.May, Day: 25},
			wantThreshold: 25,
		},
		{
			name:          "normal day rollover",
			today:         civil.Date{Year: 2024, Month: time.May, Day: 26},
			dueDay:        25,
			policy:        OverflowRollover,
			wantTarget:    civil.Date{Year: 2024, Month: time.May, Day: 25},
			wantThreshold: 25,
		},
		{
			name:          "february clamp",
			today:         civil.Date{Year: 2023, Month: time.February, Day: 28},
			dueDay:        31,
			policy:        OverflowClamp,
			wantTarget:    civil.Date{Year: 2023, Month: time.February, Day: 28},
			wantThreshold: 28,
		},
		{
			name:          "february rollover normalizes into march",
			today:         civil.Date{Year: 2023, Month: time.February, Day: 28},
			dueDay:        31,
			policy:        OverflowRollover,
			wantTarget:    civil.Date{Year: 2023, Month: time.March, Day: 3},
			wantThreshold: 31,
		},
		{
			name:          "leap february clamp",
			today:         civil.Date{Year: 2024, Month: time.February, Day: 29},
			dueDay:        30,
			policy:        OverflowClamp,
			wantTarget:    civil.Date{Year: 2024, Month: time.February, Day: 29},
			wantThreshold: 29,
		},
		{
			name:          "thirty day month clamp",
			today:         civil.Date{Year: 2024, Month: time.April, Day: 30},
			dueDay:        31,
			policy:        OverflowClamp,
			wantTarget:    civil.Date{Year: 2024, Month: time.April, Day: 30},
			wantThreshold: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, threshold := paymentDate(tt.today, tt.dueDay, tt.policy)
			if target != tt.wantTarget {
				t.Errorf("target = %v, want %v", target, tt.wantTarget)
			}
			if threshold != tt.wantThreshold {
				t.Errorf("threshold = %d, want %d", threshold, tt.wantThreshold)
			}
		})
	}
}

func TestDaysIn(t *testing.T) {
	if got := daysIn(2023, time.February); got != 28 {
		t.Errorf("daysIn(2023, Feb) = %d, want 28", got)
	}
	if got := daysIn(2024, time.February); got != 29 {
		t.Errorf("daysIn(2024, Feb) = %d, want 29", got)
	}
	if got := daysIn(2024, time.December); got != 31 {
		t.Errorf("daysIn(2024, Dec) = %d, want 31", got)
	}
}
