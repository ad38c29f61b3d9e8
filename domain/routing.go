package domain

// Route is where a chat turn gets answered.
type Route int

const (
	RouteLocal Route = iota
	RouteRemote
)

func (r Route) String() string {
	if r == RouteLocal {
		return "local"
	}
	return "remote"
}

// Decision is the routing outcome for one request. Produced once, never revised
// by the engine itself; callers may compose policy overrides on top.
type Decision struct {
	Route       Route
	Intent      string  // set when Route == RouteLocal, or the sentinel that forced remote
	Reason      string  // set when Route == RouteRemote
	Confidence  float64 // top-1 probability, or 1.0 for prefiltered decisions
	Prefiltered bool    // true when the classifier was never invoked
	Verdict     *OODVerdict
}

// Local builds a decision to serve the canned reply for intent.
func Local(intent string, confidence float64) Decision {
	return Decision{Route: RouteLocal, Intent: intent, Confidence: confidence}
}

// Remote builds a decision to escalate to the remote model.
func Remote(reason string) Decision {
	return Decision{Route: RouteRemote, Intent: IntentComplexAdvice, Reason: reason}
}
