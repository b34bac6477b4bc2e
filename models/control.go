package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

type Control struct {
	ID                  int       `gorm:"primary_key" json:"id"`
	Name                string    `gorm:"index;size:200;not null" json:"name"`
	Description         string    `gorm:"size:1000" json:"description"`
	ControlType         string    `gorm:"size:50" json:"control_type"`
	Frequency           string    `gorm:"size:50" json:"frequency"`
	TeoricEffectiveness string    `gorm:"size:20;not null" json:"teoric_effectiveness"`
	IsActive            *bool     `gorm:"not null;default:true" json:"is_active"`
	Risks               []*Risk   `gorm:"many2many:risk_controls" json:"risks,omitempty"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewControl struct {
	Name                string `json:"name" binding:"required"`
	Description         string `json:"description"`
	ControlType         string `json:"control_type"`
	Frequency           string `json:"frequency"`
	TeoricEffectiveness string `json:"teoric_effectiveness" binding:"required"`
}

func (input *NewControl) validate(ctx context.Context, id int) error {
	if !IsValidEffectiveness(input.TeoricEffectiveness) {
		return utils.ErrValidation("teoric_effectiveness must be one of Óptimo, Aceptable, Deficiente")
	}
	return utils.ValidateUnique[Control](ctx, "name", input.Name, id)
}

func CreateControl(ctx context.Context, input *NewControl) (*Control, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	control := Control{
		Name:                input.Name,
		Description:         input.Description,
		ControlType:         input.ControlType,
		Frequency:           input.Frequency,
		TeoricEffectiveness: input.TeoricEffectiveness,
		IsActive:            utils.NewTrue(),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&control).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", control.ID, "Control", "created control "+control.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &control, tx.Commit().Error
}

func UpdateControl(ctx context.Context, id int, input *NewControl) (*Control, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[Control](ctx, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	control := Control{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&control).Updates(map[string]interface{}{
		"Name":                input.Name,
		"Description":         input.Description,
		"ControlType":         input.ControlType,
		"Frequency":           input.Frequency,
		"TeoricEffectiveness": input.TeoricEffectiveness,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "Control", "updated control "+input.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &control, tx.Commit().Error
}

// ToggleActiveControl soft-deletes/restores. Deactivation is rejected while
// any program association still references the control.
func ToggleActiveControl(ctx context.Context, id int, isActive bool) (*Control, error) {
	db := config.GetDB()

	control, err := utils.FetchModel[Control](ctx, id)
	if err != nil {
		return nil, err
	}

	if !isActive {
		count, err := utils.ResourceCountWhere[AuditProcessControl](ctx, "id_control = ?", id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.ErrAssociationConflict("control %q is referenced by %d audit program association(s)", control.Name, count)
		}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(control).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "Control", "toggled control "+control.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return control, tx.Commit().Error
}

func GetControl(ctx context.Context, id int) (*Control, error) {
	return utils.FetchModel[Control](ctx, id, "Risks")
}

func GetControls(ctx context.Context, page utils.PageFilter) ([]*Control, error) {
	db := config.GetDB()
	var results []*Control
	err := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx), utils.PageScope(page)).Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
