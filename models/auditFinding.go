package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// AuditFinding is an observation raised by one audit test. The program id is
// denormalized so report queries and the phase gate skip a join.
type AuditFinding struct {
	ID             int        `gorm:"primary_key" json:"id"`
	Slug           string     `gorm:"uniqueIndex;size:250;not null" json:"slug"`
	IdAuditTest    int        `gorm:"index;not null" json:"id_audit_test"`
	AuditTest      *AuditTest `gorm:"foreignKey:IdAuditTest" json:"audit_test,omitempty"`
	IdAuditProgram int        `gorm:"index;not null" json:"id_audit_program"`
	Name           string     `gorm:"size:200;not null" json:"name"`
	Description    string     `gorm:"size:4000" json:"description"`
	Recommendation string     `gorm:"size:4000" json:"recommendation"`
	Classification string     `gorm:"size:30;not null" json:"classification"`
	FindingType    string     `gorm:"size:30;not null" json:"finding_type"`

	FindingControls []*AuditFindingControl `gorm:"foreignKey:IdAuditFinding" json:"finding_controls,omitempty"`
	ActionPlans     []*ActionPlan          `gorm:"foreignKey:IdAuditFinding" json:"action_plans,omitempty"`
	Attachments     []*Attachment          `gorm:"foreignKey:IdAuditFinding" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAuditFinding struct {
	IdAuditTest    int    `json:"id_audit_test" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
	Classification string `json:"classification" binding:"required"`
	FindingType    string `json:"finding_type" binding:"required"`
}

func (input *NewAuditFinding) validate() error {
	if !IsValidClassification(input.Classification) {
		return utils.ErrValidation("classification must be one of Menor, Moderado, Importante, Crítico")
	}
	if !IsValidFindingType(input.FindingType) {
		return utils.ErrValidation("finding type must be Conforme or No conforme")
	}
	return nil
}

func CreateAuditFinding(ctx context.Context, input *NewAuditFinding) (*AuditFinding, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}
	test, err := utils.FetchModel[AuditTest](ctx, input.IdAuditTest)
	if err != nil {
		return nil, utils.ErrValidation("audit test not found")
	}
	program, err := utils.FetchModel[AuditProgram](ctx, test.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	tx := db.Begin()
	slug, err := GenerateSlug(tx.WithContext(ctx), input.Name, program.FiscalYear, EntityTypeAuditFinding)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	finding := AuditFinding{
		Slug:           slug,
		IdAuditTest:    test.ID,
		IdAuditProgram: program.ID,
		Name:           input.Name,
		Description:    input.Description,
		Recommendation: input.Recommendation,
		Classification: input.Classification,
		FindingType:    input.FindingType,
	}
	if err := tx.WithContext(ctx).Create(&finding).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKey(err) {
			return nil, &utils.UniquenessConflictError{EntityType: EntityTypeAuditFinding, Value: slug}
		}
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", finding.ID, "AuditFinding", "created finding "+finding.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &finding, tx.Commit().Error
}

// UpdateAuditFinding mutates everything except the slug and the owning test:
// a finding never moves between tests.
func UpdateAuditFinding(ctx context.Context, id int, input *NewAuditFinding) (*AuditFinding, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}
	finding, err := utils.FetchModel[AuditFinding](ctx, id)
	if err != nil {
		return nil, err
	}
	if input.IdAuditTest != finding.IdAuditTest {
		return nil, utils.ErrValidation("a finding cannot be moved to another audit test")
	}
	program, err := utils.FetchModel[AuditProgram](ctx, finding.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(finding).Updates(map[string]interface{}{
		"Name":           input.Name,
		"Description":    input.Description,
		"Recommendation": input.Recommendation,
		"Classification": input.Classification,
		"FindingType":    input.FindingType,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", finding.ID, "AuditFinding", "updated finding "+finding.Slug); err != nil {
		tx.Rollback()
		return nil, err
	}
	return finding, tx.Commit().Error
}

// GetAuditFinding accepts a numeric id or a slug.
func GetAuditFinding(ctx context.Context, identifier string) (*AuditFinding, error) {
	db := config.GetDB()
	field, value := utils.ResolveIdentifier(identifier)

	var finding AuditFinding
	err := db.WithContext(ctx).
		Preload("FindingControls.Process").Preload("FindingControls.Control").
		Preload("ActionPlans").Preload("Attachments").
		Where(field+" = ?", value).First(&finding).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &finding, nil
}

type AuditFindingFilter struct {
	utils.PageFilter
	ProgramId      int    `form:"programId"`
	TestId         int    `form:"testId"`
	Classification string `form:"classification"`
	FindingType    string `form:"findingType"`
}

func GetAuditFindings(ctx context.Context, filter *AuditFindingFilter) ([]*AuditFinding, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&AuditFinding{}).Order("name")
	if filter.ProgramId != 0 {
		dbCtx = dbCtx.Where("id_audit_program = ?", filter.ProgramId)
	}
	if filter.TestId != 0 {
		dbCtx = dbCtx.Where("id_audit_test = ?", filter.TestId)
	}
	if filter.Classification != "" {
		dbCtx = dbCtx.Where("classification = ?", filter.Classification)
	}
	if filter.FindingType != "" {
		dbCtx = dbCtx.Where("finding_type = ?", filter.FindingType)
	}
	var results []*AuditFinding
	if err := dbCtx.Scopes(utils.PageScope(filter.PageFilter)).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
