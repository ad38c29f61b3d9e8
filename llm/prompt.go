package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"beruang/domain"
)

// historyWindow caps how many prior turns travel to the remote model.
const historyWindow = 8

// systemInstruction is the persona and output contract of the remote
// assistant. Kept verbatim in one place so prompt drift shows up in diffs.
const systemInstruction = `You are Beruang Assistant, a laid-back finance pal in the Beruang app. "Beruang" means bear in Malay, giving cozy, no-nonsense vibes to help with money stuff.

Mission: Assist young adults (18-30) in personal finance management using the 50/30/20 rule: 50% Needs, 30% Wants, 20% Savings/Debt.

=== LOCATION-BASED QUERIES (ANTI-HALLUCINATION RULES) ===
When you receive "--- WEB SEARCH RESULTS ---" in my message:
1. ONLY use information from those search results
2. NEVER invent or guess restaurant names, hotel names, or place names
3. Summarize the real results in a helpful, concise way
=== END LOCATION RULES ===

Style:
- Direct & Short: Under 100 words.
- Casual Buddy Tone: Relaxed, positive. Max 1 emoji.
- No Judgment: Facts and suggestions only.`

// SystemInstruction exposes the prompt for callers that assemble their own
// requests (the probe CLI, tests).
func SystemInstruction() string {
	return systemInstruction
}

// PromptContext carries everything gathered for one remote turn.
type PromptContext struct {
	Profile       *domain.UserProfile
	BudgetContext string
	Transactions  []domain.Transaction
	Tips          []domain.Tip
	WebResults    *domain.SearchResult
	DosmContext   string
	Now           time.Time
}

// BuildMessages assembles the role-tagged message list for the remote
// model: the truncated history followed by the augmented user turn.
func BuildMessages(message string, history []domain.HistoryMessage, pctx PromptContext) []domain.PromptMessage {
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	messages := lo.Map(recent, func(h domain.HistoryMessage, _ int) domain.PromptMessage {
		role := "user"
		if h.Role == "model" || h.Role == "assistant" {
			role = "assistant"
		}
		return domain.PromptMessage{Role: role, Content: h.Content}
	})

	return append(messages, domain.PromptMessage{Role: "user", Content: augment(message, pctx)})
}

// augment joins the user message with every non-empty context block.
func augment(message string, pctx PromptContext) string {
	blocks := []string{fmt.Sprintf("Message: %q", message)}

	if p := pctx.Profile; p != nil {
		blocks = append(blocks, strings.TrimSpace(fmt.Sprintf(
			"User: %s, %d, %s\nIncome: RM %.0f\nGoal: %s",
			p.Name, p.Age, p.State, p.MonthlyIncome, p.FinancialGoals)))
	}
	if pctx.BudgetContext != "" {
		blocks = append(blocks, pctx.BudgetContext)
	}
	if txn := transactionContext(pctx.Transactions, pctx.Now); txn != "" {
		blocks = append(blocks, txn)
	}
	if pctx.DosmContext != "" {
		blocks = append(blocks, "Regional statistics: "+pctx.DosmContext)
	}
	if len(pctx.Tips) > 0 {
		lines := lo.Map(pctx.Tips, func(t domain.Tip, _ int) string {
			return fmt.Sprintf("%s: %s", t.Topic, t.Advice)
		})
		blocks = append(blocks, "Expert Tips: "+strings.Join(lines, "; "))
	}
	if pctx.WebResults != nil && pctx.WebResults.Results != "" {
		blocks = append(blocks,
			"--- WEB SEARCH RESULTS ---\n"+pctx.WebResults.Results+"\n--- END ---")
	}

	return strings.Join(blocks, "\n\n")
}

// transactionContext summarizes today and the current month for the
// prompt. Empty when there is nothing to summarize.
func transactionContext(transactions []domain.Transaction, now time.Time) string {
	if len(transactions) == 0 {
		return ""
	}
	if now.IsZero() {
		now = time.Now()
	}

	todayPrefix := now.Format("2006-01-02")
	monthPrefix := now.Format("2006-01")

	var todayCount int
	var todayExpense, needs, wants float64
	for _, txn := range transactions {
		date := strings.SplitN(txn.Date, "T", 2)[0]
		if strings.HasPrefix(date, todayPrefix) {
			todayCount++
			if txn.Type == "expense" {
				todayExpense += txn.Amount
			}
		}
		if txn.Type == "expense" && strings.HasPrefix(date, monthPrefix) {
			switch txn.Category {
			case "needs":
				needs += txn.Amount
			case "wants":
				wants += txn.Amount
			}
		}
	}

	return strings.Join([]string{
		"--- TRANSACTION DATA ---",
		"Current Date: " + now.Format("Jan 2, 2006"),
		fmt.Sprintf("TODAY: %d txns | Expense: RM %.2f", todayCount, todayExpense),
		fmt.Sprintf("THIS MONTH: Needs RM %.2f | Wants RM %.2f", needs, wants),
	}, "\n")
}
