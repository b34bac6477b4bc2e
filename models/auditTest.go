package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// AuditTest is one fieldwork procedure executed inside a program. Its
// control and auditor scope must stay within the program's own scope.
type AuditTest struct {
	ID             int           `gorm:"primary_key" json:"id"`
	Slug           string        `gorm:"uniqueIndex;size:250;not null" json:"slug"`
	IdAuditProgram int           `gorm:"index;not null" json:"id_audit_program"`
	AuditProgram   *AuditProgram `gorm:"foreignKey:IdAuditProgram" json:"audit_program,omitempty"`
	Name           string        `gorm:"size:200;not null" json:"name"`
	Objective      string        `gorm:"size:2000" json:"objective"`
	Procedure      string        `gorm:"size:4000" json:"procedure"`
	Status         string        `gorm:"index;size:30;not null;default:'Por iniciar'" json:"status"`

	TestControls []*AuditTestControl `gorm:"foreignKey:IdAuditTest" json:"test_controls,omitempty"`
	TestUsers    []*AuditTestUser    `gorm:"foreignKey:IdAuditTest" json:"test_users,omitempty"`
	Findings     []*AuditFinding     `gorm:"foreignKey:IdAuditTest" json:"findings,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAuditTest struct {
	Name      string `json:"name" binding:"required"`
	Objective string `json:"objective"`
	Procedure string `json:"procedure"`
}

// CreateAuditTest adds a test to a program whose planning phase is complete.
// The slug carries the program's fiscal year.
func CreateAuditTest(ctx context.Context, programIdentifier string, input *NewAuditTest) (*AuditTest, error) {
	db := config.GetDB()

	program, err := GetAuditProgram(ctx, programIdentifier)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	tx := db.Begin()
	slug, err := GenerateSlug(tx.WithContext(ctx), input.Name, program.FiscalYear, EntityTypeAuditTest)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	test := AuditTest{
		Slug:           slug,
		IdAuditProgram: program.ID,
		Name:           input.Name,
		Objective:      input.Objective,
		Procedure:      input.Procedure,
		Status:         StatusPorIniciar,
	}
	if err := tx.WithContext(ctx).Create(&test).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKey(err) {
			return nil, &utils.UniquenessConflictError{EntityType: EntityTypeAuditTest, Value: slug}
		}
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", test.ID, "AuditTest", "created audit test "+test.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &test, tx.Commit().Error
}

func UpdateAuditTest(ctx context.Context, id int, input *NewAuditTest) (*AuditTest, error) {
	db := config.GetDB()

	test, err := utils.FetchModel[AuditTest](ctx, id)
	if err != nil {
		return nil, err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(test).Updates(map[string]interface{}{
		"Name":      input.Name,
		"Objective": input.Objective,
		"Procedure": input.Procedure,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", test.ID, "AuditTest", "updated audit test "+test.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return test, tx.Commit().Error
}

// UpdateAuditTestStatus moves a test along Por iniciar -> En progreso ->
// Completado. The program's execution status is recomputed from its tests:
// any progress puts execution "En progreso"; all tests complete does NOT
// auto-complete execution, that stays an explicit call.
func UpdateAuditTestStatus(ctx context.Context, id int, newStatus string) (*AuditTest, error) {
	db := config.GetDB()

	switch newStatus {
	case StatusPorIniciar, StatusEnProgreso, StatusCompletado:
	default:
		return nil, utils.ErrValidation("invalid audit test status")
	}

	test, err := utils.FetchModel[AuditTest](ctx, id)
	if err != nil {
		return nil, err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	release, err := utils.ProgramLock(ctx, program.ID, "auditTest", "UpdateAuditTestStatus")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(test).UpdateColumn("Status", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	test.Status = newStatus

	if newStatus != StatusPorIniciar && program.ExecutionStatus == StatusPorIniciar {
		err = tx.WithContext(ctx).Model(program).Updates(map[string]interface{}{
			"ExecutionStatus": StatusEnEjecucion,
			"Status":          deriveAggregateStatus(program.PlanningStatus, StatusEnEjecucion, program.ReportingStatus),
		}).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := createHistory(tx.WithContext(ctx), "*STATUS*", test.ID, "AuditTest", "status of "+test.Slug+" -> "+newStatus); err != nil {
		tx.Rollback()
		return nil, err
	}
	return test, tx.Commit().Error
}

// GetAuditTest accepts a numeric id or a slug.
func GetAuditTest(ctx context.Context, identifier string) (*AuditTest, error) {
	db := config.GetDB()
	field, value := utils.ResolveIdentifier(identifier)

	var test AuditTest
	err := db.WithContext(ctx).
		Preload("TestControls.Process").Preload("TestControls.Control").
		Preload("TestUsers.User").
		Preload("Findings").
		Where(field+" = ?", value).First(&test).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &test, nil
}

func GetAuditTests(ctx context.Context, programId int, page utils.PageFilter) ([]*AuditTest, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&AuditTest{}).Order("name")
	if programId != 0 {
		dbCtx = dbCtx.Where("id_audit_program = ?", programId)
	}
	var results []*AuditTest
	if err := dbCtx.Scopes(utils.PageScope(page)).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
