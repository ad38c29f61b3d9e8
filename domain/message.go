// Package domain contains core concepts of the routing pipeline.
// Values are immutable once produced and validated at the boundary.
package domain

// HistoryMessage is one prior turn of the conversation, as sent by the client.
type HistoryMessage struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// Transaction mirrors the ledger entries the mobile client ships with a request.
type Transaction struct {
	Date     string  `json:"date"` // ISO date, possibly with time suffix
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`     // "expense" or "income"
	Category string  `json:"category"` // "needs", "wants", "savings"
}

// UserProfile is the optional profile block used to personalize remote prompts.
type UserProfile struct {
	Name           string  `json:"name"`
	Age            int     `json:"age"`
	State          string  `json:"state"`
	MonthlyIncome  float64 `json:"monthlyIncome"`
	FinancialGoals string  `json:"financialGoals"`
}

// ChatRequest is the full payload of a chat turn.
type ChatRequest struct {
	Message       string           `json:"message" validate:"required"`
	History       []HistoryMessage `json:"history"`
	Transactions  []Transaction    `json:"transactions"`
	UserProfile   *UserProfile     `json:"userProfile"`
	BudgetContext string           `json:"budgetContext"`
}

// PromptMessage is a role-tagged message bound for the remote LLM.
type PromptMessage struct {
	Role    string
	Content string
}
