package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// AuditProgram is the root of the audit lifecycle. Besides the aggregate
// `status` it tracks one status per phase; the aggregate is stored and
// recomputed only by the phase-transition operations below.
type AuditProgram struct {
	ID                 int    `gorm:"primary_key" json:"id"`
	Slug               string `gorm:"uniqueIndex;size:250;not null" json:"slug"`
	FiscalYear         int    `gorm:"index;not null" json:"fiscal_year"`
	Name               string `gorm:"size:200;not null" json:"name"`
	Objectives         string `gorm:"size:2000" json:"objectives"`
	Scope              string `gorm:"size:2000" json:"scope"`
	EvaluationCriteria string `gorm:"size:2000" json:"evaluation_criteria"`

	AuditedPeriodFrom time.Time `gorm:"not null" json:"audited_period_from"`
	AuditedPeriodTo   time.Time `gorm:"not null" json:"audited_period_to"`
	AuditStartDate    time.Time `gorm:"not null" json:"audit_start_date"`
	AuditEndDate      time.Time `gorm:"not null" json:"audit_end_date"`

	Status          string `gorm:"index;size:30;not null;default:'Por iniciar'" json:"status"`
	PlanningStatus  string `gorm:"size:30;not null;default:'Por iniciar'" json:"planning_status"`
	ExecutionStatus string `gorm:"size:30;not null;default:'Por iniciar'" json:"execution_status"`
	ReportingStatus string `gorm:"size:30;not null;default:'Por iniciar'" json:"reporting_status"`

	// report phase narrative
	ReportTitle        string `gorm:"size:250" json:"report_title"`
	ReportIntroduction string `gorm:"size:4000" json:"report_introduction"`
	ReportSummary      string `gorm:"size:4000" json:"report_summary"`
	ReportOpinion      string `gorm:"size:4000" json:"report_opinion"`
	ReportConclusion   string `gorm:"size:4000" json:"report_conclusion"`

	ProcessControls []*AuditProcessControl `gorm:"foreignKey:IdAuditProgram" json:"process_controls,omitempty"`
	AuditUsers      []*AuditUser           `gorm:"foreignKey:IdAuditProgram" json:"audit_users,omitempty"`
	AuditTests      []*AuditTest           `gorm:"foreignKey:IdAuditProgram" json:"audit_tests,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAuditProgram struct {
	Name               string    `json:"name" binding:"required"`
	Objectives         string    `json:"objectives"`
	Scope              string    `json:"scope"`
	EvaluationCriteria string    `json:"evaluation_criteria"`
	AuditedPeriodFrom  time.Time `json:"audited_period_from" binding:"required"`
	AuditedPeriodTo    time.Time `json:"audited_period_to" binding:"required"`
	AuditStartDate     time.Time `json:"audit_start_date" binding:"required"`
	AuditEndDate       time.Time `json:"audit_end_date" binding:"required"`
}

// validate enforces the date invariants and resolves the fiscal year from the
// company's fiscal-year start month.
func (input *NewAuditProgram) validate(ctx context.Context) (int, error) {
	company, err := GetCompany(ctx)
	if err != nil {
		return 0, utils.ErrValidation("company is not configured")
	}

	fiscalYear, err := utils.FiscalYearForPeriod(company.FiscalYearStart(), input.AuditedPeriodFrom, input.AuditedPeriodTo)
	if err != nil {
		return 0, err
	}
	if input.AuditEndDate.Before(input.AuditStartDate) {
		return 0, utils.ErrValidation("audit end date must not precede audit start date")
	}
	if !input.AuditStartDate.After(input.AuditedPeriodTo) {
		return 0, utils.ErrValidation("audit execution dates must fall after the audited period")
	}
	return fiscalYear, nil
}

func CreateAuditProgram(ctx context.Context, input *NewAuditProgram) (*AuditProgram, error) {
	db := config.GetDB()

	fiscalYear, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	slug, err := GenerateSlug(tx.WithContext(ctx), input.Name, fiscalYear, EntityTypeAuditProgram)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	program := AuditProgram{
		Slug:               slug,
		FiscalYear:         fiscalYear,
		Name:               input.Name,
		Objectives:         input.Objectives,
		Scope:              input.Scope,
		EvaluationCriteria: input.EvaluationCriteria,
		AuditedPeriodFrom:  input.AuditedPeriodFrom,
		AuditedPeriodTo:    input.AuditedPeriodTo,
		AuditStartDate:     input.AuditStartDate,
		AuditEndDate:       input.AuditEndDate,
		Status:             StatusPorIniciar,
		PlanningStatus:     StatusPorIniciar,
		ExecutionStatus:    StatusPorIniciar,
		ReportingStatus:    StatusPorIniciar,
	}
	if err := tx.WithContext(ctx).Create(&program).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKey(err) {
			return nil, &utils.UniquenessConflictError{EntityType: EntityTypeAuditProgram, Value: slug}
		}
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", program.ID, "AuditProgram", "created audit program "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &program, tx.Commit().Error
}

// UpdateAuditProgram mutates the planning-phase descriptive fields. The slug
// and fiscal year are fixed at creation.
func UpdateAuditProgram(ctx context.Context, identifier string, input *NewAuditProgram) (*AuditProgram, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if program.Status == StatusSuspendido {
		return nil, utils.ErrPhaseConflict("audit program %s is suspended", program.Slug)
	}

	fiscalYear, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}
	if fiscalYear != program.FiscalYear {
		return nil, utils.ErrValidation("audited period cannot move to another fiscal year")
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(program).Updates(map[string]interface{}{
		"Name":               input.Name,
		"Objectives":         input.Objectives,
		"Scope":              input.Scope,
		"EvaluationCriteria": input.EvaluationCriteria,
		"AuditedPeriodFrom":  input.AuditedPeriodFrom,
		"AuditedPeriodTo":    input.AuditedPeriodTo,
		"AuditStartDate":     input.AuditStartDate,
		"AuditEndDate":       input.AuditEndDate,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", program.ID, "AuditProgram", "updated audit program "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return program, tx.Commit().Error
}

type ReportNarrative struct {
	ReportTitle        string `json:"report_title" binding:"required"`
	ReportIntroduction string `json:"report_introduction"`
	ReportSummary      string `json:"report_summary"`
	ReportOpinion      string `json:"report_opinion"`
	ReportConclusion   string `json:"report_conclusion"`
}

// UpdateReportNarrative fills the report-phase fields. Callers reach it
// through the phase gate, which requires execution to be complete.
func UpdateReportNarrative(ctx context.Context, identifier string, input *ReportNarrative) (*AuditProgram, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if program.Status == StatusSuspendido {
		return nil, utils.ErrPhaseConflict("audit program %s is suspended", program.Slug)
	}
	if program.ExecutionStatus != StatusCompletado {
		return nil, utils.ErrPhaseConflict("report narrative requires completed execution on %s", program.Slug)
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(program).Updates(map[string]interface{}{
		"ReportTitle":        input.ReportTitle,
		"ReportIntroduction": input.ReportIntroduction,
		"ReportSummary":      input.ReportSummary,
		"ReportOpinion":      input.ReportOpinion,
		"ReportConclusion":   input.ReportConclusion,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", program.ID, "AuditProgram", "updated report narrative of "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return program, tx.Commit().Error
}

// GetAuditProgram accepts a numeric id or a slug.
func GetAuditProgram(ctx context.Context, identifier string, associations ...string) (*AuditProgram, error) {
	db := config.GetDB()
	field, value := utils.ResolveIdentifier(identifier)

	dbCtx := db.WithContext(ctx)
	for _, assoc := range associations {
		dbCtx = dbCtx.Preload(assoc)
	}
	var program AuditProgram
	if err := dbCtx.Where(field+" = ?", value).First(&program).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &program, nil
}

type AuditProgramFilter struct {
	FiscalYear int    `form:"fiscalYear"`
	Status     string `form:"status"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

func GetAuditPrograms(ctx context.Context, filter *AuditProgramFilter) ([]*AuditProgram, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&AuditProgram{}).Order("fiscal_year DESC, name")
	if filter.FiscalYear != 0 {
		dbCtx = dbCtx.Where("fiscal_year = ?", filter.FiscalYear)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	} else if !utils.GetIncludeInactiveFromContext(ctx) {
		dbCtx = dbCtx.Where("status <> ?", StatusSuspendido)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}
	var results []*AuditProgram
	if err := dbCtx.Limit(limit).Offset(filter.Offset).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

/* state machine */

// deriveAggregateStatus recomputes the stored aggregate from the three phase
// fields, bottom-up: planning -> execution -> reporting.
func deriveAggregateStatus(planning, execution, reporting string) string {
	status := StatusPorIniciar
	if planning != StatusPorIniciar {
		status = StatusEnPlanificacion
	}
	if planning == StatusCompletado && execution != StatusPorIniciar {
		status = StatusEnEjecucion
	}
	if execution == StatusCompletado && reporting != StatusPorIniciar {
		status = StatusEnReporte
	}
	if reporting == StatusCompletado {
		status = StatusCompletado
	}
	return status
}

func validTrackStatus(newStatus string, progressName string) bool {
	switch newStatus {
	case StatusPorIniciar, progressName, StatusCompletado:
		return true
	}
	return false
}

// UpdatePlanningStatus transitions the planning track. Once downstream phases
// have left "Por iniciar", planning can no longer move below "Completado".
func UpdatePlanningStatus(ctx context.Context, identifier string, newStatus string) (*AuditProgram, error) {
	if !validTrackStatus(newStatus, StatusEnPlanificacion) {
		return nil, utils.ErrValidation("invalid planning status")
	}
	return updatePhaseStatus(ctx, identifier, "UpdatePlanningStatus", func(program *AuditProgram) error {
		if newStatus != StatusCompletado &&
			(program.ExecutionStatus != StatusPorIniciar || program.ReportingStatus != StatusPorIniciar) {
			return utils.ErrPhaseConflict("planning of %s cannot revert: downstream phases have started", program.Slug)
		}
		program.PlanningStatus = newStatus
		return nil
	})
}

// UpdateExecutionStatus transitions the execution track. Planning must be
// complete first; reverting is rejected once reporting has progressed.
func UpdateExecutionStatus(ctx context.Context, identifier string, newStatus string) (*AuditProgram, error) {
	if !validTrackStatus(newStatus, StatusEnEjecucion) {
		return nil, utils.ErrValidation("invalid execution status")
	}
	return updatePhaseStatus(ctx, identifier, "UpdateExecutionStatus", func(program *AuditProgram) error {
		if program.PlanningStatus != StatusCompletado {
			return utils.ErrPhaseConflict("execution of %s requires completed planning", program.Slug)
		}
		if newStatus != StatusCompletado && program.ReportingStatus != StatusPorIniciar {
			return utils.ErrPhaseConflict("execution of %s cannot revert: reporting has started", program.Slug)
		}
		program.ExecutionStatus = newStatus
		return nil
	})
}

// UpdateReportStatus transitions the reporting track. Execution must be
// complete first.
func UpdateReportStatus(ctx context.Context, identifier string, newStatus string) (*AuditProgram, error) {
	if !validTrackStatus(newStatus, StatusEnProgreso) {
		return nil, utils.ErrValidation("invalid reporting status")
	}
	return updatePhaseStatus(ctx, identifier, "UpdateReportStatus", func(program *AuditProgram) error {
		if program.ExecutionStatus != StatusCompletado {
			return utils.ErrPhaseConflict("reporting of %s requires completed execution", program.Slug)
		}
		program.ReportingStatus = newStatus
		return nil
	})
}

// updatePhaseStatus is the shared transition skeleton: advisory lock, fresh
// read inside the transaction, mutate callback, aggregate recompute, single
// commit. On any error all four status fields stay as they were.
func updatePhaseStatus(ctx context.Context, identifier string, funcName string, mutate func(program *AuditProgram) error) (*AuditProgram, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditProgram", funcName)
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()

	// re-read under the lock so the mutation sees current phase fields
	if err := tx.WithContext(ctx).First(program, program.ID).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}
	if program.Status == StatusSuspendido {
		tx.Rollback()
		return nil, utils.ErrPhaseConflict("audit program %s is suspended", program.Slug)
	}

	if err := mutate(program); err != nil {
		tx.Rollback()
		return nil, err
	}
	program.Status = deriveAggregateStatus(program.PlanningStatus, program.ExecutionStatus, program.ReportingStatus)

	err = tx.WithContext(ctx).Model(program).Updates(map[string]interface{}{
		"Status":          program.Status,
		"PlanningStatus":  program.PlanningStatus,
		"ExecutionStatus": program.ExecutionStatus,
		"ReportingStatus": program.ReportingStatus,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*STATUS*", program.ID, "AuditProgram", "status of "+program.Slug+" -> "+program.Status); err != nil {
		tx.Rollback()
		return nil, err
	}
	return program, tx.Commit().Error
}

// SuspendAuditProgram is the escape hatch: it forces the aggregate status
// regardless of phase state. The row is kept (soft delete).
func SuspendAuditProgram(ctx context.Context, identifier string) (*AuditProgram, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditProgram", "SuspendAuditProgram")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(program).UpdateColumn("Status", StatusSuspendido).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	program.Status = StatusSuspendido
	if err := createHistory(tx.WithContext(ctx), "*SUSPEND*", program.ID, "AuditProgram", "suspended audit program "+program.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return program, tx.Commit().Error
}

// ActivateAuditProgram resumes a suspended program by recomputing the
// aggregate from the phase fields.
func ActivateAuditProgram(ctx context.Context, identifier string) (*AuditProgram, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, identifier)
	if err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditProgram", "ActivateAuditProgram")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()
	if err := tx.WithContext(ctx).First(program, program.ID).Error; err != nil {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	program.Status = deriveAggregateStatus(program.PlanningStatus, program.ExecutionStatus, program.ReportingStatus)
	if err := tx.WithContext(ctx).Model(program).UpdateColumn("Status", program.Status).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*ACTIVATE*", program.ID, "AuditProgram", "activated audit program "+program.Slug+" -> "+program.Status); err != nil {
		tx.Rollback()
		return nil, err
	}
	return program, tx.Commit().Error
}

/* phase gating, consumed by the access gate middleware */

// PhaseForMutation names the lifecycle window a mutating route belongs to.
type PhaseForMutation string

const (
	PhasePlanning  PhaseForMutation = "planning"
	PhaseExecution PhaseForMutation = "execution"
	PhaseReport    PhaseForMutation = "report"
)

// CheckPhaseGate applies the gating rules: execution work requires completed
// planning, report work requires completed execution, and a suspended program
// rejects everything.
func (program *AuditProgram) CheckPhaseGate(phase PhaseForMutation) error {
	if program.Status == StatusSuspendido {
		return utils.ErrPhaseConflict("audit program %s is suspended", program.Slug)
	}
	switch phase {
	case PhaseExecution:
		if program.PlanningStatus != StatusCompletado {
			return utils.ErrPhaseConflict("execution work on %s requires completed planning", program.Slug)
		}
	case PhaseReport:
		if program.ExecutionStatus != StatusCompletado {
			return utils.ErrPhaseConflict("report work on %s requires completed execution", program.Slug)
		}
	}
	return nil
}
