package domain

// OODVerdict scores how trustworthy a local prediction is.
// Derived deterministically from one prediction plus its originating
// sequence and message text. Reasons is non-empty whenever IsOOD is true,
// except the synthetic no-candidate-words case which carries its own reason.
type OODVerdict struct {
	IsOOD           bool
	Reasons         []string
	Confidence      float64
	Entropy         float64 // normalized Shannon entropy, 0..1
	Margin          float64 // top-1 minus top-2 probability
	PredictedIntent string
}
