package domain

import (
	"time"
)

// TransactionType tells whether a transaction adds to or subtracts from the
// user's balance. Amounts are stored positive; the type carries direction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// DefaultCurrency is applied to imported transactions that carry no currency.
const DefaultCurrency = "IDR"

// CategorySubscription marks transactions generated by the subscription biller.
const CategorySubscription = "Subscription"

// Transaction is one cashflow entry. Rows are created by user action, by the
// legacy import, or by the subscription biller; they are never rewritten by
// re-import (first writer wins).
type Transaction struct {
	ID        string
	Title     string
	Category  string
	Amount    float64
	Currency  string
	Date      time.Time
	Type      TransactionType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subscription is a recurring monthly charge. DueDay is the calendar day of
// month (1-31) the charge falls on; LastPaidDate is nil until the biller has
// charged it at least once.
type Subscription struct {
	ID           string
	Name         string
	Cost         float64
	DueDay       int
	LastPaidDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PerformanceCourse is one graded course. Re-import overwrites by id
// (last writer wins), unlike transactions and assignments.
type PerformanceCourse struct {
	ID        string
	Semester  int
	Name      string
	SKS       int
	Grade     string
	UpdatedAt time.Time
}

// PerformanceSemester is the per-semester GPA summary row. One row exists for
// every semester referenced by an imported course or by the user profile.
type PerformanceSemester struct {
	Semester int
	IPS      float64
}

// Assignment is a coursework item. Deadline is kept verbatim as the UI-owned
// value; the core never does arithmetic on it.
type Assignment struct {
	ID        string
	Title     string
	Course    string
	Type      string
	Status    string
	Deadline  string
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleItem is one slot in the weekly class schedule. Day and the time
// bounds are kept as the UI-owned strings ("Monday", "08:00").
type ScheduleItem struct {
	ID        string
	Day       string
	StartTime string
	EndTime   string
	Course    string
	Location  string
	Note      string
	UpdatedAt time.Time
}
