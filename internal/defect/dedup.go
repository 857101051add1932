package defect

// Dedup merges a defect slice by location (file and line), keeping — on
// collision — the record whose bug type has the highest priority (§4.3,
// §4.4). Stable: the first-seen record for a location establishes iteration
// order, later collisions only replace the kept record's content when they
// outrank it.
func Dedup(defects []Defect) []Defect {
	order := make([]string, 0, len(defects))
	best := make(map[string]Defect, len(defects))
	for _, d := range defects {
		sig := d.File + "|" + itoa(d.Line)
		cur, ok := best[sig]
		if !ok {
			order = append(order, sig)
			best[sig] = d
			continue
		}
		if Higher(d.BugType, cur.BugType) {
			best[sig] = d
		}
	}
	out := make([]Defect, 0, len(order))
	for _, sig := range order {
		out = append(out, best[sig])
	}
	return out
}

// Subtract removes defects whose signature is present in fixed.
func Subtract(defects []Defect, fixed map[string]bool) []Defect {
	out := make([]Defect, 0, len(defects))
	for _, d := range defects {
		if !fixed[d.Signature()] {
			out = append(out, d)
		}
	}
	return out
}
