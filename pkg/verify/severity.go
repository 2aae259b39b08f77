package verify

// Severity classifies the outcome of a product verification. Ordering is
// Fatal > Error > Warning > Success; warnings never escalate.
type Severity int

const (
	Success Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "clean"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Code maps a severity onto the process exit code convention: 0 clean,
// 2 fatal or error, 3 warnings only.
func (s Severity) Code() int {
	switch s {
	case Success:
		return 0
	case Warning:
		return 3
	default:
		return 2
	}
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}
