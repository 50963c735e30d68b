package ir

// Version constants for the IR wire shape and the engine.
const (
	// IRVersion is the IR wire shape version.
	IRVersion = "1"

	// EngineVersion is the flowir engine version.
	EngineVersion = "0.1.0"
)
