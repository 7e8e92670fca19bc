package frontier

// Frontier is a bounded FIFO of normalized URLs with a hard cap. When the
// cap is hit it transitions to Capped=true so callers can emit a
// FRONTIER_CAPPED coverage gap.
type Frontier struct {
	max    int
	seen   map[string]bool
	order  []string
	Capped bool
}

// New creates a Frontier bounded at max unique URLs.
func New(max int) *Frontier {
	return &Frontier{max: max, seen: make(map[string]bool)}
}

// Add normalizes raw and adds it to the frontier if not already present
// and the cap has not been reached. Returns whether the URL was newly
// added.
func (f *Frontier) Add(raw string) (added bool, err error) {
	if f.Capped {
		return false, nil
	}
	norm, err := Normalize(raw)
	if err != nil {
		return false, err
	}
	if f.seen[norm] {
		return false, nil
	}
	if len(f.order) >= f.max {
		f.Capped = true
		return false, nil
	}
	f.seen[norm] = true
	f.order = append(f.order, norm)
	return true, nil
}

// URLs returns the frontier's contents in FIFO insertion order.
func (f *Frontier) URLs() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of URLs currently in the frontier.
func (f *Frontier) Len() int { return len(f.order) }
