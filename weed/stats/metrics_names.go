package stats

// This file contains label values for the ec split metrics
// The naming convention is ErrorSomeThing = "errorSomeThing"
const (
	// split request kinds
	SplitTypeArray  = "array"
	SplitTypeSingle = "single"

	// split failures
	ErrorNoMem         = "errorNoMem"
	ErrorInvariant     = "errorInvariant"
	ErrorShardNotFound = "errorShardNotFound"

	// forwarding
	Sent         = "sent"
	FailedToSend = "failedToSend"
)
