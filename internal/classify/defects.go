package classify

import "github.com/codeheal/healer/internal/defect"

// ToDefects extracts and classifies every tuple in raw, tagging each
// resulting Defect with source (the analyzer or test runner that produced
// raw, e.g. "ruff", "pytest", "jest"). Dedup across multiple call sites is
// the caller's responsibility (defect.Dedup), per §4.4's "dedup across
// parse sources is by signature".
func ToDefects(raw, source string) []defect.Defect {
	extracted := Extract(raw)
	out := make([]defect.Defect, 0, len(extracted))
	for _, e := range extracted {
		if e.File == "" {
			continue
		}
		bt := defect.BugType(Classify(e.Kind))
		out = append(out, defect.Defect{
			File:     e.File,
			Line:     e.Line,
			Column:   e.Column,
			BugType:  bt,
			Raw:      e.Kind,
			Message:  e.Message,
			Severity: severityFor(bt),
			Source:   source,
		})
	}
	return out
}

func severityFor(bt defect.BugType) defect.Severity {
	switch bt {
	case defect.Syntax, defect.Indentation, defect.Import, defect.TypeError:
		return defect.SeverityBlocker
	case defect.Linting:
		return defect.SeverityStylistic
	default:
		return defect.SeverityFixable
	}
}
