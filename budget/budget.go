// Package budget computes the 50/30/20 snapshot the remote prompt is
// grounded on: 50% Needs, 30% Wants, 20% Savings of monthly income.
package budget

import (
	"fmt"
	"strings"
	"time"
)

// Rule split of monthly income.
const (
	needsShare   = 0.50
	wantsShare   = 0.30
	savingsShare = 0.20
)

// Transactions is the minimal view this package needs; it matches
// domain.Transaction field for field.
type Transaction struct {
	Date     string
	Name     string
	Amount   float64
	Type     string
	Category string
}

// Snapshot is the computed state of one month against the rule.
type Snapshot struct {
	MonthlyIncome float64
	TotalExpense  float64
	NeedsSpent    float64
	WantsSpent    float64
	SavingsSpent  float64
	NeedsBudget   float64
	WantsBudget   float64
	SavingsBudget float64
}

// Compute aggregates the current month's expenses against the income-based
// budgets. Transactions outside the current month are ignored.
func Compute(transactions []Transaction, monthlyIncome float64, now time.Time) Snapshot {
	snapshot := Snapshot{
		MonthlyIncome: monthlyIncome,
		NeedsBudget:   monthlyIncome * needsShare,
		WantsBudget:   monthlyIncome * wantsShare,
		SavingsBudget: monthlyIncome * savingsShare,
	}

	monthPrefix := now.Format("2006-01")
	for _, txn := range transactions {
		if txn.Type != "expense" || !strings.HasPrefix(txn.Date, monthPrefix) {
			continue
		}
		snapshot.TotalExpense += txn.Amount
		switch txn.Category {
		case "needs":
			snapshot.NeedsSpent += txn.Amount
		case "wants":
			snapshot.WantsSpent += txn.Amount
		case "savings":
			snapshot.SavingsSpent += txn.Amount
		}
	}
	return snapshot
}

// UsedPercent is how much of monthly income this month's expenses consumed.
func (s Snapshot) UsedPercent() float64 {
	if s.MonthlyIncome <= 0 {
		return 0
	}
	return s.TotalExpense / s.MonthlyIncome * 100
}

// FormatForPrompt renders the snapshot as the budget context block of a
// remote prompt.
func (s Snapshot) FormatForPrompt() string {
	var b strings.Builder
	b.WriteString("--- BUDGET (50/30/20) ---\n")
	fmt.Fprintf(&b, "Monthly Income: RM %.2f\n", s.MonthlyIncome)
	fmt.Fprintf(&b, "Needs: RM %.2f of RM %.2f\n", s.NeedsSpent, s.NeedsBudget)
	fmt.Fprintf(&b, "Wants: RM %.2f of RM %.2f\n", s.WantsSpent, s.WantsBudget)
	fmt.Fprintf(&b, "Savings: RM %.2f of RM %.2f\n", s.SavingsSpent, s.SavingsBudget)
	fmt.Fprintf(&b, "Income used this month: %.0f%%", s.UsedPercent())
	return b.String()
}
