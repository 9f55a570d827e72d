package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReport_Summary(t *testing.T) {
	started := time.Unix(1_700_000_000, 0)
	r := Report{
		Registry:    "Bloom (redis)",
		Insert:      Result{Operation: OperationInsert, Count: 1000, Elapsed: 2 * time.Second},
		Query:       Result{Operation: OperationQuery, Count: 1000, Elapsed: time.Second},
		Probe:       Result{Operation: OperationProbe, Count: 500, FalsePositives: 5},
		MemoryBytes: 1199,
		StartedAt:   started,
	}

	s := r.Summary()
	assert.False(t, s.Failed)
	assert.Empty(t, s.Error)
	assert.Equal(t, 1000, s.Tokens)
	assert.Equal(t, 2.0, s.InsertSeconds)
	assert.Equal(t, 1.0, s.QuerySeconds)
	assert.Equal(t, 500, s.Probes)
	assert.InDelta(t, 0.01, s.FalsePositiveRate, 1e-9)
	assert.Equal(t, int64(1199), s.MemoryBytes)
	assert.Equal(t, started, s.StartedAt)
}

func TestReport_Failed(t *testing.T) {
	r := Report{Registry: "Exact (redis)", Err: errors.New("setup phase: boom")}

	assert.True(t, r.Failed())
	assert.Zero(t, r.FalsePositiveRate())
	assert.Equal(t, "setup phase: boom", r.Summary().Error)
}
