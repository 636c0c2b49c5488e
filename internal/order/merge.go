package order

// Merge walks the plans from layer 0 down and concatenates each layer's
// has-successor ids and then its leaf ids. Repeats are dropped, keeping the
// first occurrence.
func Merge(plans []LayerPlan) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range plans {
		for _, list := range [][]string{p.HasSuccessor, p.Leaves} {
			for _, id := range list {
				if seen[id] {
					continue
				}
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
