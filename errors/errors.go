package errors

import "fmt"

var (
	ErrModelUnavailable  = fmt.Errorf("intent model not loaded")
	ErrNoSignal          = fmt.Errorf("no recognized words in message")
	ErrEmptyMessage      = fmt.Errorf("message cannot be empty")
	ErrStreamInterrupted = fmt.Errorf("client stream interrupted")
	ErrNoRemoteClient    = fmt.Errorf("no remote LLM client configured")
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrConfig            = fmt.Errorf("invalid configuration")
)
