package failure

import "time"

// HistoryRecord describes one perturbed parameter. Records are advisory:
// nothing in the engine reads them back.
type HistoryRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Elapsed     float64   `json:"elapsed_seconds"`
	Parameter   string    `json:"parameter"`
	FailureType string    `json:"failure_type,omitempty"`
	Noise       string    `json:"noise,omitempty"`
	Clamped     bool      `json:"clamped"`
	Original    any       `json:"original"`
	Result      any       `json:"result"`
}

// HistorySink receives history records. Implementations must be safe for
// concurrent use and must not block the caller for long.
type HistorySink interface {
	Record(rec HistoryRecord)
}

// SinkFunc adapts a function to HistorySink.
type SinkFunc func(HistoryRecord)

func (f SinkFunc) Record(rec HistoryRecord) { f(rec) }

type nopSink struct{}

func (nopSink) Record(HistoryRecord) {}

// MultiSink fans a record out to several sinks.
func MultiSink(sinks ...HistorySink) HistorySink {
	return SinkFunc(func(rec HistoryRecord) {
		for _, s := range sinks {
			if s != nil {
				s.Record(rec)
			}
		}
	})
}
