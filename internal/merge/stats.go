package merge

import "github.com/sells-group/lead-cli/internal/model"

// Stats summarizes a merge for logging.
type Stats struct {
	Input      int
	Output     int
	Merged     int // groups with more than one member
	Duplicates int // input records folded into another record
}

// Summarize computes merge statistics from the raw input.
func Summarize(raw []model.Lead) Stats {
	counts := make(map[string]int, len(raw))
	for _, l := range raw {
		counts[l.DedupeID]++
	}
	s := Stats{Input: len(raw), Output: len(counts)}
	for _, n := range counts {
		if n > 1 {
			s.Merged++
			s.Duplicates += n - 1
		}
	}
	return s
}
