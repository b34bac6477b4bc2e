package models

import (
	"context"
	"fmt"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"github.com/xuri/excelize/v2"
)

// GetHeatMap builds the 3x3 process heat map from every active process and
// the probability/impact of its active risks.
func GetHeatMap(ctx context.Context) ([]*HeatMapCell, error) {
	db := config.GetDB()

	var processes []*Process
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Risks", "is_active = ?", true).
		Order("name").
		Find(&processes).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]ProcessRiskProfile, 0, len(processes))
	for _, process := range processes {
		profile := ProcessRiskProfile{ProcessId: process.ID, ProcessName: process.Name}
		for _, risk := range process.Risks {
			profile.Probability = append(profile.Probability, risk.Probability)
			profile.Impact = append(profile.Impact, risk.Impact)
		}
		profiles = append(profiles, profile)
	}
	return BuildHeatMap(profiles), nil
}

// GetRiskMatrix is the scored risk listing the matrix view renders; it is
// the same computation as GetRisks.
func GetRiskMatrix(ctx context.Context) ([]*RiskScore, error) {
	return scoredRisks(ctx)
}

// Dashboard aggregates the landing-page counters.
type Dashboard struct {
	Processes          int64            `json:"processes"`
	Risks              int64            `json:"risks"`
	Controls           int64            `json:"controls"`
	Events             int64            `json:"events"`
	AuditPrograms      int64            `json:"audit_programs"`
	ProgramsByStatus   map[string]int64 `json:"programs_by_status"`
	FindingsBySeverity map[string]int64 `json:"findings_by_severity"`
	OverdueActionPlans int64            `json:"overdue_action_plans"`
}

func GetDashboard(ctx context.Context) (*Dashboard, error) {
	db := config.GetDB()
	dashboard := Dashboard{
		ProgramsByStatus:   map[string]int64{},
		FindingsBySeverity: map[string]int64{},
	}

	counters := []struct {
		dest  *int64
		count func() (int64, error)
	}{
		{&dashboard.Processes, func() (int64, error) {
			return utils.ResourceCountWhere[Process](ctx, "is_active = ?", true)
		}},
		{&dashboard.Risks, func() (int64, error) {
			return utils.ResourceCountWhere[Risk](ctx, "is_active = ?", true)
		}},
		{&dashboard.Controls, func() (int64, error) {
			return utils.ResourceCountWhere[Control](ctx, "is_active = ?", true)
		}},
		{&dashboard.Events, func() (int64, error) {
			return utils.ResourceCountWhere[Event](ctx, "is_active = ?", true)
		}},
		{&dashboard.AuditPrograms, func() (int64, error) {
			return utils.ResourceCountWhere[AuditProgram](ctx, "1 = 1")
		}},
		{&dashboard.OverdueActionPlans, func() (int64, error) {
			return utils.ResourceCountWhere[ActionPlan](ctx,
				"is_active = ? AND status <> ? AND due_date < ?", true, StatusCompletado, time.Now())
		}},
	}
	for _, counter := range counters {
		value, err := counter.count()
		if err != nil {
			return nil, err
		}
		*counter.dest = value
	}

	type statusRow struct {
		Key   string
		Count int64
	}
	var programRows []statusRow
	err := db.WithContext(ctx).Model(&AuditProgram{}).
		Select("status AS `key`, COUNT(*) AS count").
		Group("status").
		Scan(&programRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range programRows {
		dashboard.ProgramsByStatus[row.Key] = row.Count
	}

	var findingRows []statusRow
	err = db.WithContext(ctx).Model(&AuditFinding{}).
		Select("classification AS `key`, COUNT(*) AS count").
		Group("classification").
		Scan(&findingRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range findingRows {
		dashboard.FindingsBySeverity[row.Key] = row.Count
	}

	return &dashboard, nil
}

// ProgramReport is the full report payload for one program.
type ProgramReport struct {
	Program         *AuditProgram          `json:"program"`
	ProcessControls []*AuditProcessControl `json:"process_controls"`
	Auditors        []*AuditUser           `json:"auditors"`
	Tests           []*AuditTest           `json:"tests"`
	Findings        []*AuditFinding        `json:"findings"`
}

func GetProgramReport(ctx context.Context, identifier string) (*ProgramReport, error) {
	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}

	report := ProgramReport{Program: program}
	if report.ProcessControls, err = GetProgramProcessControls(ctx, program.ID); err != nil {
		return nil, err
	}
	if report.Auditors, err = GetProgramUsers(ctx, program.ID); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).
		Where("id_audit_program = ?", program.ID).
		Preload("TestControls.Process").Preload("TestControls.Control").
		Preload("TestUsers.User").
		Order("name").
		Find(&report.Tests).Error
	if err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).
		Where("id_audit_program = ?", program.ID).
		Preload("FindingControls.Process").Preload("FindingControls.Control").
		Preload("ActionPlans.Responsible").
		Preload("Attachments").
		Order("name").
		Find(&report.Findings).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ExportProgramReportXLSX renders the report payload into a workbook with one
// sheet per section and returns the serialized bytes.
func ExportProgramReportXLSX(ctx context.Context, identifier string) ([]byte, string, error) {
	report, err := GetProgramReport(ctx, identifier)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	summary := "Resumen"
	f.SetSheetName("Sheet1", summary)
	summaryRows := [][]interface{}{
		{"Programa", report.Program.Name},
		{"Identificador", report.Program.Slug},
		{"Año fiscal", report.Program.FiscalYear},
		{"Estado", report.Program.Status},
		{"Planificación", report.Program.PlanningStatus},
		{"Ejecución", report.Program.ExecutionStatus},
		{"Reporte", report.Program.ReportingStatus},
		{"Período auditado desde", report.Program.AuditedPeriodFrom.Format("2006-01-02")},
		{"Período auditado hasta", report.Program.AuditedPeriodTo.Format("2006-01-02")},
		{"Objetivos", report.Program.Objectives},
		{"Alcance", report.Program.Scope},
		{"Criterios de evaluación", report.Program.EvaluationCriteria},
		{"Título del informe", report.Program.ReportTitle},
		{"Opinión", report.Program.ReportOpinion},
		{"Conclusión", report.Program.ReportConclusion},
	}
	for i, row := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return nil, "", err
		}
	}

	scope := "Alcance"
	if _, err := f.NewSheet(scope); err != nil {
		return nil, "", err
	}
	_ = f.SetSheetRow(scope, "A1", &[]interface{}{"Proceso", "Control", "Efectividad teórica"})
	for i, row := range report.ProcessControls {
		processName, controlName, effectiveness := "", "", ""
		if row.Process != nil {
			processName = row.Process.Name
		}
		if row.Control != nil {
			controlName = row.Control.Name
			effectiveness = row.Control.TeoricEffectiveness
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(scope, cell, &[]interface{}{processName, controlName, effectiveness})
	}

	tests := "Pruebas"
	if _, err := f.NewSheet(tests); err != nil {
		return nil, "", err
	}
	_ = f.SetSheetRow(tests, "A1", &[]interface{}{"Prueba", "Objetivo", "Estado"})
	for i, test := range report.Tests {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(tests, cell, &[]interface{}{test.Name, test.Objective, test.Status})
	}

	findings := "Hallazgos"
	if _, err := f.NewSheet(findings); err != nil {
		return nil, "", err
	}
	_ = f.SetSheetRow(findings, "A1", &[]interface{}{"Hallazgo", "Clasificación", "Tipo", "Recomendación", "Planes de acción"})
	for i, finding := range report.Findings {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(findings, cell, &[]interface{}{
			finding.Name, finding.Classification, finding.FindingType,
			finding.Recommendation, len(finding.ActionPlans),
		})
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	fileName := fmt.Sprintf("%s.xlsx", report.Program.Slug)
	return buffer.Bytes(), fileName, nil
}

// ExportRiskMatrixXLSX renders the scored risk listing as a single-sheet
// workbook.
func ExportRiskMatrixXLSX(ctx context.Context) ([]byte, string, error) {
	risks, err := scoredRisks(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Matriz de riesgos"
	f.SetSheetName("Sheet1", sheet)
	_ = f.SetSheetRow(sheet, "A1", &[]interface{}{
		"Riesgo", "Probabilidad", "Impacto",
		"Riesgo inherente", "Nivel inherente",
		"Efectividad de controles", "Nivel de controles",
		"Riesgo residual", "Nivel residual",
	})
	for i, risk := range risks {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(sheet, cell, &[]interface{}{
			risk.Name, risk.Probability, risk.Impact,
			risk.InherentScore, risk.InherentLabel,
			risk.ControlScore, risk.ControlLabel,
			risk.ResidualScore, risk.ResidualLabel,
		})
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), "matriz-de-riesgos.xlsx", nil
}
