// Package scoring turns the categorical ratings of a device into a score in [0,10].
//
// Sensors and the other categories use different scales and are kept apart on
// purpose; see SensorScore and StandardScore.
package scoring

import (
	"math"

	"github.com/frostdev-ops/home-planner-go/internal/core/types"
)

const (
	// MaxScore is the upper bound of every score
	MaxScore = 10.0

	gatewayProtocolWeight = 3.4
)

// sensor scale: 3/2/1
var sensorEvaluationPoints = map[types.Evaluation]float64{
	types.EvaluationGood:   3,
	types.EvaluationMedium: 2,
	types.EvaluationBad:    1,
}

var sensorConnectivityPoints = map[types.Connectivity]float64{
	types.ConnectivityMatter:    3,
	types.ConnectivityZigbee:    3,
	types.ConnectivityTuya:      2,
	types.ConnectivityOtherApp:  1,
	types.ConnectivityBluetooth: 1,
}

// standard scale: 10/5/0
var evaluationPoints = map[types.Evaluation]float64{
	types.EvaluationGood:   10,
	types.EvaluationMedium: 5,
	types.EvaluationBad:    0,
}

var connectivityPoints = map[types.Connectivity]float64{
	types.ConnectivityMatter:    10,
	types.ConnectivityZigbee:    10,
	types.ConnectivityTuya:      5,
	types.ConnectivityOtherApp:  0,
	types.ConnectivityBluetooth: 0,
}

// EvaluationPoints maps good/medium/bad to 10/5/0. Unknown evaluations report false.
func EvaluationPoints(e types.Evaluation) (float64, bool) {
	p, ok := evaluationPoints[e]
	return p, ok
}

// SensorScore rates a sensor on the 3/2/1 scale: each spec, the price and the
// connectivity contribute up to 3 points and the total is scaled to 10.
func SensorScore(specs []types.Specification, price types.Evaluation, conn types.Connectivity) float64 {
	var total float64
	for _, s := range specs {
		total += sensorEvaluationPoints[s.Evaluation]
	}
	total += sensorEvaluationPoints[price]
	total += sensorConnectivityPoints[conn]

	maxPoints := 3*float64(len(specs)) + 3 + 3
	if maxPoints == 0 {
		return 0
	}
	return round1(MaxScore * total / maxPoints)
}

// StandardScore rates switches, lighting and other devices as the mean of the
// spec, price, connectivity and Home Assistant compatibility points.
// An empty connectivity or a zero compatibility rating contributes no point.
func StandardScore(specs []types.Specification, price types.Evaluation, conn types.Connectivity, haCompatibility int) float64 {
	points := commonPoints(specs, price, haCompatibility)
	if p, ok := connectivityPoints[conn]; ok {
		points = append(points, p)
	}
	return mean(points)
}

// VoiceAssistantScore is StandardScore without connectivity; gateway-capable
// assistants earn an extra point value growing with the bridged protocol count.
func VoiceAssistantScore(specs []types.Specification, price types.Evaluation, haCompatibility int, isGateway bool, protocols []types.Connectivity) float64 {
	points := commonPoints(specs, price, haCompatibility)
	if isGateway {
		points = append(points, GatewayProtocolPoints(len(protocols)))
	}
	return mean(points)
}

// GatewayProtocolPoints is the bonus for bridging n protocols, capped at 10
func GatewayProtocolPoints(n int) float64 {
	return math.Min(float64(n)*gatewayProtocolWeight, MaxScore)
}

// HomeAssistantPoints maps a 1..5 rating linearly onto 0..10
func HomeAssistantPoints(rating int) float64 {
	return float64(rating-1) * 2.5
}

// ForDevice computes the score matching the device category.
// Gateways have no single connectivity and are rated on specs, price and compatibility.
func ForDevice(d *types.Device) float64 {
	switch d.Category {
	case types.CategorySensor:
		return SensorScore(d.Specs, d.PriceEvaluation, d.Connectivity)
	case types.CategorySwitch, types.CategoryLighting, types.CategoryOtherDevice:
		return StandardScore(d.Specs, d.PriceEvaluation, d.Connectivity, d.HomeAssistantCompatibility)
	case types.CategoryVoiceAssistant:
		return VoiceAssistantScore(d.Specs, d.PriceEvaluation, d.HomeAssistantCompatibility, d.IsGateway, d.GatewayProtocols)
	case types.CategoryGateway:
		return StandardScore(d.Specs, d.PriceEvaluation, "", d.HomeAssistantCompatibility)
	}
	return 0
}

func commonPoints(specs []types.Specification, price types.Evaluation, haCompatibility int) []float64 {
	points := make([]float64, 0, len(specs)+3)
	for _, s := range specs {
		if p, ok := evaluationPoints[s.Evaluation]; ok {
			points = append(points, p)
		}
	}
	if p, ok := evaluationPoints[price]; ok {
		points = append(points, p)
	}
	if haCompatibility >= 1 && haCompatibility <= 5 {
		points = append(points, HomeAssistantPoints(haCompatibility))
	}
	return points
}

func mean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p
	}
	return round1(sum / float64(len(points)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
