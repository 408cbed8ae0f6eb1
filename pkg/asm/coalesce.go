package asm

// CoalesceLabels merges runs of adjacent LabelLine entries into one: every
// later label in the run is reassigned the earlier label's id (so existing
// references to it keep working) and its LabelLine is dropped from the
// stream. Indexed, not range-based — mutating a slice while ranging over it
// is the bug this guards against.
func CoalesceLabels(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	i := 0
	for i < len(lines) {
		ll, ok := lines[i].(*LabelLine)
		if !ok {
			out = append(out, lines[i])
			i++
			continue
		}
		lead := ll.Label
		j := i + 1
		for j < len(lines) {
			next, ok := lines[j].(*LabelLine)
			if !ok {
				break
			}
			next.Label.id = lead.id
			j++
		}
		out = append(out, ll)
		i = j
	}
	return out
}
