package policy

type Verdict string

const (
	VerdictApplied    Verdict = "applied"
	VerdictDryRun     Verdict = "dry_run"
	VerdictIncomplete Verdict = "incomplete"
	VerdictFailed     Verdict = "failed"
)

// Decide classifies a finished run. Only a live run that applied nothing is
// a problem; allowIncomplete turns it from a failure into a warning.
func Decide(applied int, dryRun, allowIncomplete bool) Verdict {
	switch {
	case dryRun:
		return VerdictDryRun
	case applied > 0:
		return VerdictApplied
	case allowIncomplete:
		return VerdictIncomplete
	default:
		return VerdictFailed
	}
}

// NeedsDump reports whether the run should leave a diagnostic dump behind.
func (v Verdict) NeedsDump() bool {
	return v == VerdictIncomplete || v == VerdictFailed
}
