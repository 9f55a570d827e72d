package core

import "time"

// Operation names a benchmark phase
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationQuery  Operation = "query"
	OperationProbe  Operation = "probe"
)

// Result is the measurement of a single phase against a single registry
type Result struct {
	Operation      Operation
	Count          int
	Elapsed        time.Duration
	FalsePositives int
	FalseNegatives int
	MemoryBytes    int64
}

// Seconds returns the elapsed wall-clock time in seconds
func (r Result) Seconds() float64 {
	return r.Elapsed.Seconds()
}

// Report aggregates the phases of one registry run.
// A failed run carries Err; timings of the aborted phases are discarded.
type Report struct {
	Registry    string
	Insert      Result
	Query       Result
	Probe       Result
	MemoryBytes int64
	StartedAt   time.Time
	Err         error
}

// Failed reports whether the run was aborted
func (r Report) Failed() bool {
	return r.Err != nil
}

// FalsePositiveRate is the empirical false positive rate of the probe phase
func (r Report) FalsePositiveRate() float64 {
	if r.Probe.Count == 0 {
		return 0
	}
	return float64(r.Probe.FalsePositives) / float64(r.Probe.Count)
}

// Summary is the flat, serializable form of a report
type Summary struct {
	Registry          string    `json:"registry"`
	StartedAt         time.Time `json:"started_at"`
	Failed            bool      `json:"failed"`
	Error             string    `json:"error,omitempty"`
	Tokens            int       `json:"tokens"`
	InsertSeconds     float64   `json:"insert_seconds"`
	QuerySeconds      float64   `json:"query_seconds"`
	Probes            int       `json:"probes"`
	FalsePositives    int       `json:"false_positives"`
	FalseNegatives    int       `json:"false_negatives"`
	FalsePositiveRate float64   `json:"false_positive_rate"`
	MemoryBytes       int64     `json:"memory_bytes"`
}

// Summary flattens the report
func (r Report) Summary() Summary {
	s := Summary{
		Registry:          r.Registry,
		StartedAt:         r.StartedAt,
		Failed:            r.Failed(),
		Tokens:            r.Insert.Count,
		InsertSeconds:     r.Insert.Seconds(),
		QuerySeconds:      r.Query.Seconds(),
		Probes:            r.Probe.Count,
		FalsePositives:    r.Probe.FalsePositives,
		FalseNegatives:    r.Query.FalseNegatives,
		FalsePositiveRate: r.FalsePositiveRate(),
		MemoryBytes:       r.MemoryBytes,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}
