package assembler

import (
	"fmt"
	"github.com/dustin/go-humanize"
)

// Stats are the running counters of an engine.
// PointsProcessed counts every sample consumed, valid or not.
type Stats struct {
	PointsProcessed int64 `json:"points_processed"`
	Valid           int64 `json:"valid"`
	Invalid         int64 `json:"invalid"`
}

// Trajectories is the number of finalized trajectories, emitted or discarded.
func (s Stats) Trajectories() int64 {
	return s.Valid + s.Invalid
}

func (s Stats) Add(o Stats) Stats {
	return Stats{
		PointsProcessed: s.PointsProcessed + o.PointsProcessed,
		Valid:           s.Valid + o.Valid,
		Invalid:         s.Invalid + o.Invalid,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("points=%s valid=%s invalid=%s",
		humanize.Comma(s.PointsProcessed), humanize.Comma(s.Valid), humanize.Comma(s.Invalid))
}
