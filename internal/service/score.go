package service

import (
	"fmt"
	"hash/fnv"
)

// Score categories blended into the composite desirability score. The values are
// stable placeholders for unmodeled external signals, not measured data.
const (
	scoreTraffic = "TRAFFIC"
	scoreGrid    = "GRID"
	scoreParking = "PARKING"
	scoreAccess  = "ACCESS"
)

// ScoreWeights blends the four sub-scores into the composite station score.
type ScoreWeights struct {
	Traffic float64
	Grid    float64
	Parking float64
	Access  float64
}

// DefaultScoreWeights returns the standard blend used when config does not
// override the coefficients.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Traffic: 0.35, Grid: 0.30, Parking: 0.20, Access: 0.15}
}

// stableScore returns a deterministic pseudo-random value in [0.5, 0.99) derived
// from the station id and category. Repeated calls always yield the same value.
func stableScore(stationID int64, category string) float64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%s", stationID, category)
	unit := float64(h.Sum64()) / float64(^uint64(0))
	return 0.5 + 0.49*unit
}
