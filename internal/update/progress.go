package update

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/adamancini/sidecar/internal/types"
)

// Event is one progress notification. Events are emitted, never stored.
type Event struct {
	Stage   types.Stage `json:"stage" yaml:"stage"`
	Percent int         `json:"percent" yaml:"percent"` // 0..100
	Message string      `json:"message" yaml:"message"`
}

// Reporter receives progress events. Report must not block for long; the
// engine calls it synchronously between stages.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report calls f(e).
func (f ReporterFunc) Report(e Event) { f(e) }

// NopReporter discards every event.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Event) {}

// ChannelReporter forwards events to a channel. Sends give up when ctx is
// done so an abandoned consumer cannot wedge a run.
type ChannelReporter struct {
	ctx context.Context
	ch  chan<- Event
}

// NewChannelReporter creates a reporter writing to ch until ctx is done.
func NewChannelReporter(ctx context.Context, ch chan<- Event) *ChannelReporter {
	return &ChannelReporter{ctx: ctx, ch: ch}
}

// Report implements Reporter.
func (r *ChannelReporter) Report(e Event) {
	select {
	case r.ch <- e:
	case <-r.ctx.Done():
	}
}

// LogReporter writes each event as a structured log line. Intermediate
// stages log at debug level; the terminal event of a run logs at info, or
// error for a failure.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter logging through logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(e Event) {
	switch {
	case e.Stage == types.StageFailed:
		r.logger.Error(e.Message, "stage", e.Stage, "percent", e.Percent)
	case e.Stage.IsTerminal():
		r.logger.Info(e.Message, "stage", e.Stage)
	default:
		r.logger.Debug(e.Message, "stage", e.Stage, "percent", e.Percent)
	}
}

// MultiReporter fans events out to several reporters in order.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}
