package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	transactions := []Transaction{
		{Date: "2026-08-03", Name: "Rent", Amount: 1200, Type: "expense", Category: "needs"},
		{Date: "2026-08-10", Name: "Games", Amount: 150, Type: "expense", Category: "wants"},
		{Date: "2026-08-15", Name: "ASB", Amount: 400, Type: "expense", Category: "savings"},
		{Date: "2026-08-20", Name: "Salary", Amount: 4000, Type: "income"},
		{Date: "2026-07-28", Name: "Old rent", Amount: 1200, Type: "expense", Category: "needs"},
	}

	snapshot := Compute(transactions, 4000, now)

	req.Equal(1200.0, snapshot.NeedsSpent, "previous month must be excluded")
	req.Equal(150.0, snapshot.WantsSpent)
	req.Equal(400.0, snapshot.SavingsSpent)
	req.Equal(1750.0, snapshot.TotalExpense, "income entries are not expenses")

	req.Equal(2000.0, snapshot.NeedsBudget)
	req.Equal(1200.0, snapshot.WantsBudget)
	req.Equal(800.0, snapshot.SavingsBudget)
	req.InDelta(43.75, snapshot.UsedPercent(), 1e-9)
}

func TestUsedPercentZeroIncome(t *testing.T) {
	req := require.New(t)
	snapshot := Compute(nil, 0, time.Now())
	req.Zero(snapshot.UsedPercent())
}

func TestFormatForPrompt(t *testing.T) {
	req := require.New(t)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := Compute([]Transaction{
		{Date: "2026-08-03", Amount: 500, Type: "expense", Category: "needs"},
	}, 2000, now)

	block := snapshot.FormatForPrompt()
	req.Contains(block, "--- BUDGET (50/30/20) ---")
	req.Contains(block, "Needs: RM 500.00 of RM 1000.00")
	req.Contains(block, "Income used this month: 25%")
}
