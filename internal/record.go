package internal

// Record is the unit emitted to a sink for every accepted line. It is
// created once per match and never mutated afterwards.
type Record struct {
	File      string
	LineNum   int
	Timestamp string // RFC3339 if a timestamp was extracted, empty otherwise
	Reason    string
	Line      string
	Fields    map[string]string
}

// Stats accumulates the per-run counters reported in the final summary.
type Stats struct {
	FilesScanned int
	LinesScanned int
	LinesMatched int
}
