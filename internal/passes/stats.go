package passes

import "time"

// PassStat is one registered pass's running totals across a PassManager's
// lifetime: how many times it ran, how many of those runs reported
// modified=true, and total wall-clock time spent in it. Spec §4.7:
// "Optional statistics: per-pass run count, total elapsed time, count of
// modifying runs."
type PassStat struct {
	Name          string
	RunCount      int
	ModifiedCount int
	Elapsed       time.Duration
}

// Stats aggregates PassStat per pass name, in first-seen order so a
// report prints in the same order passes were registered (mirrors the
// teacher's OptimizationPipeline.Run progress listing).
type Stats struct {
	order []string
	byName map[string]*PassStat
}

func NewStats() *Stats {
	return &Stats{byName: map[string]*PassStat{}}
}

func (s *Stats) record(name string, modified bool, elapsed time.Duration) {
	st, ok := s.byName[name]
	if !ok {
		st = &PassStat{Name: name}
		s.byName[name] = st
		s.order = append(s.order, name)
	}
	st.RunCount++
	if modified {
		st.ModifiedCount++
	}
	st.Elapsed += elapsed
}

// All returns every recorded PassStat in first-seen order.
func (s *Stats) All() []PassStat {
	out := make([]PassStat, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, *s.byName[name])
	}
	return out
}

// For returns the stat for one pass name, or the zero value if it never ran.
func (s *Stats) For(name string) PassStat {
	if st, ok := s.byName[name]; ok {
		return *st
	}
	return PassStat{Name: name}
}
