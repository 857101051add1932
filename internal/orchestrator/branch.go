package orchestrator

import "strings"

// BranchName builds the remediation branch name per §6's normative grammar:
// upper(strip_nonword(team)) + "_" + strip_nonword(leader) + "_AI_Fix",
// collapsing repeated underscores and trimming leading/trailing ones.
func BranchName(team, leader string) string {
	t := strings.ToUpper(stripNonWord(team))
	l := stripNonWord(leader)
	name := t + "_" + l + "_AI_Fix"
	return collapseUnderscores(strings.Trim(name, "_"))
}

// stripNonWord replaces everything outside [A-Za-z0-9_] with underscores,
// and turns whitespace runs into a single underscore first so "Jane Doe"
// becomes "Jane_Doe" rather than "Jane__Doe".
func stripNonWord(s string) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, "_")

	var b strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}
