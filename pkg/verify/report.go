package verify

import (
	"fmt"

	"go.uber.org/zap"
)

// Entry is one recorded diagnostic. Entries keep the order in which problems
// were found so repeated runs produce identical output.
type Entry struct {
	Level   Severity
	Message string
}

// report accumulates diagnostics for a single product and mirrors them to the
// logger's warning and error channels.
type report struct {
	log      *zap.SugaredLogger
	severity Severity
	entries  []Entry
}

func newReport(log *zap.SugaredLogger) *report {
	return &report{log: log}
}

func (r *report) record(level Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
	r.severity = Max(r.severity, level)

	if r.log == nil {
		return
	}
	switch level {
	case Warning:
		r.log.Warn(msg)
	default:
		r.log.Error(msg)
	}
}

func (r *report) warnf(format string, args ...any) {
	r.record(Warning, format, args...)
}

func (r *report) errorf(format string, args ...any) {
	r.record(Error, format, args...)
}

// fatalf records a condition that aborts verification of the current product.
func (r *report) fatalf(format string, args ...any) {
	r.record(Fatal, format, args...)
}
