package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveAggregateStatus(t *testing.T) {
	cases := []struct {
		name                           string
		planning, execution, reporting string
		want                           string
	}{
		{"all pending", StatusPorIniciar, StatusPorIniciar, StatusPorIniciar, StatusPorIniciar},
		{"planning started", StatusEnPlanificacion, StatusPorIniciar, StatusPorIniciar, StatusEnPlanificacion},
		{"planning done execution pending", StatusCompletado, StatusPorIniciar, StatusPorIniciar, StatusEnPlanificacion},
		{"execution started", StatusCompletado, StatusEnEjecucion, StatusPorIniciar, StatusEnEjecucion},
		{"execution done reporting pending", StatusCompletado, StatusCompletado, StatusPorIniciar, StatusEnEjecucion},
		{"reporting started", StatusCompletado, StatusCompletado, StatusEnProgreso, StatusEnReporte},
		{"all done", StatusCompletado, StatusCompletado, StatusCompletado, StatusCompletado},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveAggregateStatus(tc.planning, tc.execution, tc.reporting))
		})
	}
}

func TestValidTrackStatus(t *testing.T) {
	assert.True(t, validTrackStatus(StatusPorIniciar, StatusEnPlanificacion))
	assert.True(t, validTrackStatus(StatusEnPlanificacion, StatusEnPlanificacion))
	assert.True(t, validTrackStatus(StatusCompletado, StatusEnPlanificacion))
	// progress name from another track is rejected
	assert.False(t, validTrackStatus(StatusEnEjecucion, StatusEnPlanificacion))
	assert.False(t, validTrackStatus(StatusSuspendido, StatusEnPlanificacion))
	assert.False(t, validTrackStatus("", StatusEnPlanificacion))
}

func TestCheckPhaseGate(t *testing.T) {
	program := &AuditProgram{
		Slug:            "auditoría-de-ti-FY2025",
		Status:          StatusEnPlanificacion,
		PlanningStatus:  StatusEnPlanificacion,
		ExecutionStatus: StatusPorIniciar,
		ReportingStatus: StatusPorIniciar,
	}

	assert.NoError(t, program.CheckPhaseGate(PhasePlanning))
	assert.Error(t, program.CheckPhaseGate(PhaseExecution), "execution needs completed planning")
	assert.Error(t, program.CheckPhaseGate(PhaseReport))

	program.PlanningStatus = StatusCompletado
	assert.NoError(t, program.CheckPhaseGate(PhaseExecution))
	assert.Error(t, program.CheckPhaseGate(PhaseReport), "report needs completed execution")

	program.ExecutionStatus = StatusCompletado
	assert.NoError(t, program.CheckPhaseGate(PhaseReport))

	program.Status = StatusSuspendido
	assert.Error(t, program.CheckPhaseGate(PhasePlanning))
	assert.Error(t, program.CheckPhaseGate(PhaseExecution))
	assert.Error(t, program.CheckPhaseGate(PhaseReport))
}

func TestDiffPairSets(t *testing.T) {
	existing := []ProcessControlPair{{1, 10}, {1, 11}, {2, 10}}
	desired := []ProcessControlPair{{1, 11}, {2, 10}, {3, 12}}

	toAdd, toRemove := diffPairSets(existing, desired)
	assert.Equal(t, []ProcessControlPair{{3, 12}}, toAdd)
	assert.Equal(t, []ProcessControlPair{{1, 10}}, toRemove)

	toAdd, toRemove = diffPairSets(existing, existing)
	assert.Empty(t, toAdd)
	assert.Empty(t, toRemove)
}
