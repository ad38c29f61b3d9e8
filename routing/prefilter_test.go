package routing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefilterEscalation(t *testing.T) {
	req := require.New(t)
	prefilter, err := NewPrefilter()
	req.NoError(err)

	tests := []struct {
		name     string
		message  string
		escalate bool
	}{
		{
			name:     "starter plus red flag",
			message:  "should i invest in crypto or stocks for retirement",
			escalate: true,
		},
		{
			name:     "red flag in long message without starter",
			message:  "i am wondering about that new insurance plan from my workplace",
			escalate: true,
		},
		{
			name:     "red flag in short message is tolerated",
			message:  "my salary arrived",
			escalate: false,
		},
		{
			name:     "no red flag at all",
			message:  "why is the sky blue and the grass green on sunny days",
			escalate: false,
		},
		{
			name:     "starter alone is not enough",
			message:  "how do you do",
			escalate: false,
		},
		{
			name:     "multi word red flag phrase",
			message:  "give me the pros and cons please thanks a lot",
			escalate: true,
		},
		{
			name:     "case insensitive",
			message:  "Should I BUY a HOUSE right now honestly",
			escalate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.escalate, prefilter.ShouldEscalate(tt.message), tt.message)
		})
	}
}

func TestPrefilterAppHelpBypass(t *testing.T) {
	req := require.New(t)
	prefilter, err := NewPrefilter()
	req.NoError(err)

	// "income" would normally be a red flag; app-help phrasing wins.
	req.False(prefilter.ShouldEscalate("how to add income in this app"))

	// Bypass precedence: even with an adjacent red flag in a longer
	// variant, the allow-list keeps the message local.
	req.False(prefilter.ShouldEscalate("how to add income from my salary in this app every month"))

	req.False(prefilter.ShouldEscalate("where is add transaction in the app"))
	req.False(prefilter.ShouldEscalate("what is this app even doing"))
}
