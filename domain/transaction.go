package domain

// Transaction fallback labels, returned when a description contains no
// word the expense model was trained on.
const (
	FallbackCategory    = "WANTS"
	FallbackSubcategory = "Others"
)

// TransactionPrediction is the two-head output of the expense
// categorisation model: the budget bucket and the finer subcategory,
// each with its own confidence. Fallback marks predictions that were
// not produced by the model at all.
type TransactionPrediction struct {
	Category              string
	Subcategory           string
	CategoryConfidence    float64
	SubcategoryConfidence float64
	Fallback              bool
}
