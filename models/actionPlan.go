package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// ActionPlan is the remediation agreed for a finding.
type ActionPlan struct {
	ID             int           `gorm:"primary_key" json:"id"`
	IdAuditFinding int           `gorm:"index;not null" json:"id_audit_finding"`
	AuditFinding   *AuditFinding `gorm:"foreignKey:IdAuditFinding" json:"audit_finding,omitempty"`
	Name           string        `gorm:"size:200;not null" json:"name"`
	Description    string        `gorm:"size:1000" json:"description"`
	ResponsibleId  int           `gorm:"index;not null" json:"responsible_id"`
	Responsible    *User         `gorm:"foreignKey:ResponsibleId" json:"responsible,omitempty"`
	DueDate        time.Time     `gorm:"not null" json:"due_date"`
	Status         string        `gorm:"size:30;not null;default:'Por iniciar'" json:"status"`
	IsActive       *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewActionPlan struct {
	IdAuditFinding int       `json:"id_audit_finding" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	ResponsibleId  int       `json:"responsible_id" binding:"required"`
	DueDate        time.Time `json:"due_date" binding:"required"`
	Status         string    `json:"status"`
}

func (input *NewActionPlan) validate(ctx context.Context) error {
	finding, err := utils.FetchModel[AuditFinding](ctx, input.IdAuditFinding)
	if err != nil {
		return utils.ErrValidation("audit finding not found")
	}
	program, err := utils.FetchModel[AuditProgram](ctx, finding.IdAuditProgram)
	if err != nil {
		return err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[User](ctx, input.ResponsibleId); err != nil {
		return utils.ErrValidation("responsible user not found")
	}
	switch input.Status {
	case "", StatusPorIniciar, StatusEnProgreso, StatusCompletado:
	default:
		return utils.ErrValidation("invalid action plan status")
	}
	return nil
}

func CreateActionPlan(ctx context.Context, input *NewActionPlan) (*ActionPlan, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = StatusPorIniciar
	}

	plan := ActionPlan{
		IdAuditFinding: input.IdAuditFinding,
		Name:           input.Name,
		Description:    input.Description,
		ResponsibleId:  input.ResponsibleId,
		DueDate:        input.DueDate,
		Status:         status,
		IsActive:       utils.NewTrue(),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", plan.ID, "ActionPlan", "created action plan "+plan.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &plan, tx.Commit().Error
}

func UpdateActionPlan(ctx context.Context, id int, input *NewActionPlan) (*ActionPlan, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[ActionPlan](ctx, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	plan := ActionPlan{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&plan).Updates(map[string]interface{}{
		"Name":          input.Name,
		"Description":   input.Description,
		"ResponsibleId": input.ResponsibleId,
		"DueDate":       input.DueDate,
		"Status":        input.Status,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "ActionPlan", "updated action plan "+input.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &plan, tx.Commit().Error
}

func ToggleActiveActionPlan(ctx context.Context, id int, isActive bool) (*ActionPlan, error) {
	db := config.GetDB()

	plan, err := utils.FetchModel[ActionPlan](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(plan).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "ActionPlan", "toggled action plan "+plan.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return plan, tx.Commit().Error
}

func GetActionPlan(ctx context.Context, id int) (*ActionPlan, error) {
	return utils.FetchModel[ActionPlan](ctx, id, "Responsible", "AuditFinding")
}

func GetActionPlans(ctx context.Context, findingId int) ([]*ActionPlan, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx)).Preload("Responsible")
	if findingId != 0 {
		dbCtx = dbCtx.Where("id_audit_finding = ?", findingId)
	}
	var results []*ActionPlan
	if err := dbCtx.Order("due_date").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
