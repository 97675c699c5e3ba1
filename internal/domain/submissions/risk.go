package submissions

const (
	riskPerDetection = 10
	maxRisk          = 100
)

// Score gives every detection the same weight and clamps at maxRisk.
func Score(detections []Detection) int {
	return min(riskPerDetection*len(detections), maxRisk)
}
