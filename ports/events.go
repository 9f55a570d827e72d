package ports

import (
	"context"

	"github.com/layer-3/revbench/core"
)

// ReportPublisher publishes finished benchmark reports to other consumers
type ReportPublisher interface {
	PublishReport(ctx context.Context, report core.Report) error
}

// MetricsRecorder exports finished benchmark reports as metrics
type MetricsRecorder interface {
	RecordReport(report core.Report)
}
