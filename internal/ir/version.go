package ir

// Version constants for the wire schema and runtime.
const (
	// WireVersion is the version of the core output wire format.
	WireVersion = "1"

	// RuntimeVersion is the boundary runtime version.
	RuntimeVersion = "0.1.0"
)
