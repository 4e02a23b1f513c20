package ir

// Version constants for the IR schema and the front end.
const (
	// IRVersion is the Assertion IR schema version.
	IRVersion = "1"

	// FrontEndVersion is the desugaring front end version.
	FrontEndVersion = "0.1.0"
)
