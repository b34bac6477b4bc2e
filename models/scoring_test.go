package models_test

import (
	"testing"

	"github.com/grcsuite/auditoria_backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInherentRiskScoreAndLabel(t *testing.T) {
	cases := []struct {
		probability string
		impact      string
		score       float64
		label       string
	}{
		{models.ProbabilityBaja, models.ImpactBajo, 1.0, models.RiskLabelBajo},
		{models.ProbabilityBaja, models.ImpactMedio, 1.5, models.RiskLabelBajo}, // midpoint rounds down
		{models.ProbabilityMedia, models.ImpactMedio, 2.0, models.RiskLabelMedio},
		{models.ProbabilityMedia, models.ImpactAlto, 2.5, models.RiskLabelAlto}, // midpoint rounds up
		{models.ProbabilityAlta, models.ImpactAlto, 3.0, models.RiskLabelAlto},
	}
	for _, tc := range cases {
		score := models.InherentRiskScore(tc.probability, tc.impact)
		assert.Equal(t, tc.score, score, "%s/%s score", tc.probability, tc.impact)
		assert.Equal(t, tc.label, models.InherentRiskLabel(score), "%s/%s label", tc.probability, tc.impact)
	}
}

func TestControlEffectivenessScore(t *testing.T) {
	// no controls scores zero, which lands on Deficiente
	assert.Equal(t, 0.0, models.ControlEffectivenessScore(nil))
	assert.Equal(t, models.EffectivenessDeficiente, models.ControlEffectivenessLabel(0))

	// unknown values score like Deficiente
	assert.Equal(t, 0.0, models.ControlEffectivenessScore([]string{"???"}))

	assert.Equal(t, 3.0, models.ControlEffectivenessScore([]string{models.EffectivenessOptimo}))
	assert.Equal(t, 1.0, models.ControlEffectivenessScore([]string{models.EffectivenessAceptable}))
	assert.Equal(t, 0.0, models.ControlEffectivenessScore([]string{models.EffectivenessDeficiente}))

	mixed := models.ControlEffectivenessScore([]string{
		models.EffectivenessOptimo, models.EffectivenessAceptable, models.EffectivenessDeficiente,
	})
	assert.InDelta(t, 4.0/3.0, mixed, 1e-9)
	assert.Equal(t, models.EffectivenessAceptable, models.ControlEffectivenessLabel(mixed))
}

func TestControlEffectivenessLabelBoundaries(t *testing.T) {
	assert.Equal(t, models.EffectivenessDeficiente, models.ControlEffectivenessLabel(0.99))
	assert.Equal(t, models.EffectivenessAceptable, models.ControlEffectivenessLabel(1))
	assert.Equal(t, models.EffectivenessAceptable, models.ControlEffectivenessLabel(2.49))
	assert.Equal(t, models.EffectivenessOptimo, models.ControlEffectivenessLabel(2.5))
}

func TestResidualRiskIsNotClamped(t *testing.T) {
	// Baja/Bajo inherent 1.0, all controls Óptimo -> residual goes negative
	inherent := models.InherentRiskScore(models.ProbabilityBaja, models.ImpactBajo)
	controls := models.ControlEffectivenessScore([]string{models.EffectivenessOptimo})
	residual := models.ResidualRiskScore(inherent, controls)
	assert.Equal(t, -2.0, residual)
	assert.Equal(t, models.RiskLabelBajo, models.ResidualRiskLabel(residual))
}

func TestResidualRiskLabelMatchesInherentBanding(t *testing.T) {
	for _, score := range []float64{-2, 0, 1.5, 2, 2.5, 3} {
		assert.Equal(t, models.InherentRiskLabel(score), models.ResidualRiskLabel(score))
	}
}

func TestHeatMapCellValueSnapsMidpoints(t *testing.T) {
	// cell display values snap midpoints to the boundary, unlike the banding
	assert.Equal(t, 1.0, models.HeatMapCellValue(models.ProbabilityBaja, models.ImpactMedio))
	assert.Equal(t, 1.0, models.HeatMapCellValue(models.ProbabilityMedia, models.ImpactBajo))
	assert.Equal(t, 3.0, models.HeatMapCellValue(models.ProbabilityMedia, models.ImpactAlto))
	assert.Equal(t, 3.0, models.HeatMapCellValue(models.ProbabilityAlta, models.ImpactMedio))
	assert.Equal(t, 2.0, models.HeatMapCellValue(models.ProbabilityMedia, models.ImpactMedio))
}

func TestBuildHeatMapPlacesProcessesByAverage(t *testing.T) {
	cells := models.BuildHeatMap([]models.ProcessRiskProfile{
		{
			ProcessId:   1,
			ProcessName: "Tesorería",
			Probability: []string{models.ProbabilityAlta, models.ProbabilityAlta},
			Impact:      []string{models.ImpactAlto, models.ImpactMedio},
		},
		{
			ProcessId:   2,
			ProcessName: "Compras",
			Probability: []string{models.ProbabilityBaja},
			Impact:      []string{models.ImpactBajo},
		},
		{
			// no risks: skipped entirely
			ProcessId:   3,
			ProcessName: "Nómina",
		},
	})
	require.Len(t, cells, 9)

	find := func(prob, imp string) *models.HeatMapCell {
		for _, cell := range cells {
			if cell.Probability == prob && cell.Impact == imp {
				return cell
			}
		}
		t.Fatalf("missing cell %s/%s", prob, imp)
		return nil
	}

	// Tesorería: prob avg 3 -> Alta, impact avg 2.5 -> Alto
	high := find(models.ProbabilityAlta, models.ImpactAlto)
	assert.Equal(t, 1, high.Count)
	assert.Equal(t, "Tesorería", high.Processes)

	low := find(models.ProbabilityBaja, models.ImpactBajo)
	assert.Equal(t, 1, low.Count)
	assert.Equal(t, "Compras", low.Processes)

	var placed int
	for _, cell := range cells {
		placed += cell.Count
	}
	assert.Equal(t, 2, placed)
}

func TestBuildHeatMapJoinsProcessNames(t *testing.T) {
	cells := models.BuildHeatMap([]models.ProcessRiskProfile{
		{ProcessId: 1, ProcessName: "Ventas", Probability: []string{models.ProbabilityMedia}, Impact: []string{models.ImpactMedio}},
		{ProcessId: 2, ProcessName: "Logística", Probability: []string{models.ProbabilityMedia}, Impact: []string{models.ImpactMedio}},
	})
	for _, cell := range cells {
		if cell.Probability == models.ProbabilityMedia && cell.Impact == models.ImpactMedio {
			assert.Equal(t, 2, cell.Count)
			assert.Equal(t, "Ventas, Logística", cell.Processes)
			return
		}
	}
	t.Fatal("missing Media/Medio cell")
}
