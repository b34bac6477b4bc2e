package models

import "strings"

// Scoring engine. Pure functions shared by the risk listing, the risk matrix
// report and the audit heat map, so all three surfaces band identically.
//
// Band boundaries are expressed with exact comparison operators (<= 1.5,
// < 2.5); callers must not round scores before labeling them.

func ProbabilityScore(label string) float64 {
	switch label {
	case ProbabilityBaja:
		return 1
	case ProbabilityMedia:
		return 2
	case ProbabilityAlta:
		return 3
	}
	return 0
}

func ImpactScore(label string) float64 {
	switch label {
	case ImpactBajo:
		return 1
	case ImpactMedio:
		return 2
	case ImpactAlto:
		return 3
	}
	return 0
}

// InherentRiskScore averages the probability and impact scores; range [1,3]
// for valid labels.
func InherentRiskScore(probability string, impact string) float64 {
	return (ProbabilityScore(probability) + ImpactScore(impact)) / 2
}

// InherentRiskLabel bands a score: <=1.5 Bajo, <2.5 Medio, else Alto.
func InherentRiskLabel(score float64) string {
	if score <= 1.5 {
		return RiskLabelBajo
	}
	if score < 2.5 {
		return RiskLabelMedio
	}
	return RiskLabelAlto
}

func controlEffectivenessValue(teoricEffectiveness string) float64 {
	switch teoricEffectiveness {
	case EffectivenessOptimo:
		return 3
	case EffectivenessAceptable:
		return 1
	}
	// Deficiente and unknown values both score 0.
	return 0
}

// ControlEffectivenessScore averages the mapped effectiveness of the control
// set. An empty set scores 0.
func ControlEffectivenessScore(teoricEffectiveness []string) float64 {
	if len(teoricEffectiveness) == 0 {
		return 0
	}
	var sum float64
	for _, eff := range teoricEffectiveness {
		sum += controlEffectivenessValue(eff)
	}
	return sum / float64(len(teoricEffectiveness))
}

// ControlEffectivenessLabel bands a score: <1 Deficiente, <2.5 Aceptable,
// else Óptimo.
func ControlEffectivenessLabel(score float64) string {
	if score < 1 {
		return EffectivenessDeficiente
	}
	if score < 2.5 {
		return EffectivenessAceptable
	}
	return EffectivenessOptimo
}

// ResidualRiskScore subtracts control effectiveness from the inherent score.
// The result is not clamped: strong controls over a low risk go negative, and
// the banding still applies as-is.
func ResidualRiskScore(inherentScore float64, controlScore float64) float64 {
	return inherentScore - controlScore
}

// ResidualRiskLabel uses the same boundaries as the inherent banding.
func ResidualRiskLabel(score float64) string {
	return InherentRiskLabel(score)
}

// HeatMapCellValue is the displayed value of a heat-map cell. Midpoints snap
// to the boundary (1.5 -> 1, 2.5 -> 3). This snap applies ONLY to heat-map
// cell coloring; the banding functions above keep their own midpoint policy.
func HeatMapCellValue(probabilityLabel string, impactLabel string) float64 {
	value := (ProbabilityScore(probabilityLabel) + ImpactScore(impactLabel)) / 2
	if value == 1.5 {
		return 1
	}
	if value == 2.5 {
		return 3
	}
	return value
}

// reverse mappings: an average score back to the nearest level, using the
// banding boundaries.
func probabilityLabelForScore(score float64) string {
	if score <= 1.5 {
		return ProbabilityBaja
	}
	if score < 2.5 {
		return ProbabilityMedia
	}
	return ProbabilityAlta
}

func impactLabelForScore(score float64) string {
	if score <= 1.5 {
		return ImpactBajo
	}
	if score < 2.5 {
		return ImpactMedio
	}
	return ImpactAlto
}

// ProcessRiskProfile is one process plus the probability/impact labels of its
// associated risks, already loaded by the caller.
type ProcessRiskProfile struct {
	ProcessId   int
	ProcessName string
	Probability []string
	Impact      []string
}

// HeatMapCell is one cell of the 3x3 grid.
type HeatMapCell struct {
	Probability string  `json:"probability"`
	Impact      string  `json:"impact"`
	Value       float64 `json:"value"`
	Count       int     `json:"count"`
	Processes   string  `json:"processes"`
}

var heatMapProbabilities = []string{ProbabilityBaja, ProbabilityMedia, ProbabilityAlta}
var heatMapImpacts = []string{ImpactBajo, ImpactMedio, ImpactAlto}

// BuildHeatMap places each process into the grid cell matching the average
// probability/impact of its risks and accumulates a count plus a comma-joined
// name list per cell. Processes without risks are skipped.
func BuildHeatMap(processes []ProcessRiskProfile) []*HeatMapCell {
	grid := make(map[string]*HeatMapCell, 9)
	var cells []*HeatMapCell
	for _, prob := range heatMapProbabilities {
		for _, imp := range heatMapImpacts {
			cell := &HeatMapCell{
				Probability: prob,
				Impact:      imp,
				Value:       HeatMapCellValue(prob, imp),
			}
			grid[prob+"|"+imp] = cell
			cells = append(cells, cell)
		}
	}

	for _, process := range processes {
		if len(process.Probability) == 0 || len(process.Impact) == 0 {
			continue
		}
		var probSum, impSum float64
		for _, label := range process.Probability {
			probSum += ProbabilityScore(label)
		}
		for _, label := range process.Impact {
			impSum += ImpactScore(label)
		}
		prob := probabilityLabelForScore(probSum / float64(len(process.Probability)))
		imp := impactLabelForScore(impSum / float64(len(process.Impact)))

		cell := grid[prob+"|"+imp]
		cell.Count++
		if cell.Processes == "" {
			cell.Processes = process.ProcessName
		} else {
			cell.Processes = strings.Join([]string{cell.Processes, process.ProcessName}, ", ")
		}
	}

	return cells
}
