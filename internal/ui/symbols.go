package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓"
	SymbolFail    = "✗"
	SymbolRunning = "●" // Daemon alive
	SymbolStopped = "○" // No record
	SymbolStale   = "⊘" // Record left by a dead process
)
