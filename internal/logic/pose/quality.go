package pose

import (
	"math"

	"github.com/golang/geo/r2"
)

// Quality is the assessed quality of a solved pose.
type Quality string

const (
	// QualityExcellent indicates RMSE < 0.5 px
	QualityExcellent Quality = "excellent"
	// QualityGood indicates RMSE 0.5-1.5 px
	QualityGood Quality = "good"
	// QualityFair indicates RMSE 1.5-3.0 px
	QualityFair Quality = "fair"
	// QualityPoor indicates RMSE > 3.0 px
	QualityPoor Quality = "poor"
	// QualityUnknown indicates RMSE not computed
	QualityUnknown Quality = "unknown"
)

// Reprojection RMSE thresholds (pixels)
const (
	RMSEThresholdExcellent = 0.5
	RMSEThresholdGood      = 1.5
	RMSEThresholdFair      = 3.0
)

// ReprojectionRMSE is the root mean square pixel distance between observed
// corners and their reprojection. Mismatched or empty input yields NaN.
func ReprojectionRMSE(observed, projected []r2.Point) float64 {
	if len(observed) == 0 || len(observed) != len(projected) {
		return math.NaN()
	}
	var sum float64
	for i := range observed {
		d := observed[i].Sub(projected[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(observed)))
}

// Grade maps a reprojection RMSE to a Quality.
func Grade(rmse float64) Quality {
	switch {
	case math.IsNaN(rmse) || rmse < 0:
		return QualityUnknown
	case rmse < RMSEThresholdExcellent:
		return QualityExcellent
	case rmse < RMSEThresholdGood:
		return QualityGood
	case rmse < RMSEThresholdFair:
		return QualityFair
	default:
		return QualityPoor
	}
}

// String returns a human-readable description of the quality.
func (q Quality) String() string {
	switch q {
	case QualityExcellent:
		return "excellent (RMSE < 0.5px)"
	case QualityGood:
		return "good (RMSE 0.5-1.5px)"
	case QualityFair:
		return "fair (RMSE 1.5-3.0px)"
	case QualityPoor:
		return "poor (RMSE > 3.0px)"
	case QualityUnknown:
		return "unknown (RMSE not computed)"
	default:
		return string(q)
	}
}
