package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"gorm.io/gorm"
)

type Risk struct {
	ID          int        `gorm:"primary_key" json:"id"`
	Name        string     `gorm:"index;size:200;not null" json:"name"`
	Description string     `gorm:"size:1000" json:"description"`
	Probability string     `gorm:"size:10;not null" json:"probability"`
	Impact      string     `gorm:"size:10;not null" json:"impact"`
	IsActive    *bool      `gorm:"not null;default:true" json:"is_active"`
	Processes   []*Process `gorm:"many2many:risk_processes" json:"processes,omitempty"`
	Controls    []*Control `gorm:"many2many:risk_controls" json:"controls,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRisk struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Probability string `json:"probability" binding:"required"`
	Impact      string `json:"impact" binding:"required"`
	ProcessIds  []int  `json:"process_ids"`
	ControlIds  []int  `json:"control_ids"`
}

// RiskScore is a risk decorated with the scoring engine's outputs, served by
// the risk listing and the risk matrix report.
type RiskScore struct {
	*Risk
	InherentScore float64 `json:"inherent_score"`
	InherentLabel string  `json:"inherent_label"`
	ControlScore  float64 `json:"control_score"`
	ControlLabel  string  `json:"control_label"`
	ResidualScore float64 `json:"residual_score"`
	ResidualLabel string  `json:"residual_label"`
}

func (input *NewRisk) validate(ctx context.Context, id int) error {
	if !IsValidProbability(input.Probability) {
		return utils.ErrValidation("probability must be one of Baja, Media, Alta")
	}
	if !IsValidImpact(input.Impact) {
		return utils.ErrValidation("impact must be one of Bajo, Medio, Alto")
	}
	if err := utils.ValidateUnique[Risk](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{Model: &Process{}, Ids: input.ProcessIds, Message: "some selected processes do not exist"},
		{Model: &Control{}, Ids: input.ControlIds, Message: "some selected controls do not exist"},
	})
}

func idsToProcesses(ids []int) []*Process {
	out := make([]*Process, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		out = append(out, &Process{ID: id})
	}
	return out
}

func idsToControls(ids []int) []*Control {
	out := make([]*Control, 0, len(ids))
	for _, id := range utils.UniqueSlice(ids) {
		out = append(out, &Control{ID: id})
	}
	return out
}

func CreateRisk(ctx context.Context, input *NewRisk) (*Risk, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	risk := Risk{
		Name:        input.Name,
		Description: input.Description,
		Probability: input.Probability,
		Impact:      input.Impact,
		IsActive:    utils.NewTrue(),
		Processes:   idsToProcesses(input.ProcessIds),
		Controls:    idsToControls(input.ControlIds),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Omit("Processes.*", "Controls.*").Create(&risk).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", risk.ID, "Risk", "created risk "+risk.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &risk, tx.Commit().Error
}

func UpdateRisk(ctx context.Context, id int, input *NewRisk) (*Risk, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[Risk](ctx, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	risk := Risk{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&risk).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"Probability": input.Probability,
		"Impact":      input.Impact,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// full replace of both association sets
	err = tx.WithContext(ctx).Model(&risk).
		Session(&gorm.Session{SkipHooks: true}).
		Omit("Processes.*").
		Association("Processes").Replace(idsToProcesses(input.ProcessIds))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(&risk).
		Session(&gorm.Session{SkipHooks: true}).
		Omit("Controls.*").
		Association("Controls").Replace(idsToControls(input.ControlIds))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "Risk", "updated risk "+input.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &risk, tx.Commit().Error
}

func ToggleActiveRisk(ctx context.Context, id int, isActive bool) (*Risk, error) {
	db := config.GetDB()

	risk, err := utils.FetchModel[Risk](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(risk).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "Risk", "toggled risk "+risk.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return risk, tx.Commit().Error
}

func GetRisk(ctx context.Context, id int) (*Risk, error) {
	return utils.FetchModel[Risk](ctx, id, "Processes", "Controls")
}

// GetRisks lists risks with scores computed by the scoring engine.
func GetRisks(ctx context.Context, page utils.PageFilter) ([]*RiskScore, error) {
	return scoredRisks(ctx, utils.PageScope(page))
}

// scoredRisks backs both the paginated listing and the full risk matrix; the
// matrix passes no paging scope.
func scoredRisks(ctx context.Context, scopes ...func(db *gorm.DB) *gorm.DB) ([]*RiskScore, error) {
	db := config.GetDB()
	var risks []*Risk
	dbCtx := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx)).Preload("Controls").Order("name")
	for _, scope := range scopes {
		dbCtx = dbCtx.Scopes(scope)
	}
	err := dbCtx.Find(&risks).Error
	if err != nil {
		return nil, err
	}

	results := make([]*RiskScore, 0, len(risks))
	for _, risk := range risks {
		results = append(results, scoreRisk(risk))
	}
	return results, nil
}

func scoreRisk(risk *Risk) *RiskScore {
	effectiveness := make([]string, 0, len(risk.Controls))
	for _, control := range risk.Controls {
		effectiveness = append(effectiveness, control.TeoricEffectiveness)
	}

	inherent := InherentRiskScore(risk.Probability, risk.Impact)
	controlScore := ControlEffectivenessScore(effectiveness)
	residual := ResidualRiskScore(inherent, controlScore)

	return &RiskScore{
		Risk:          risk,
		InherentScore: inherent,
		InherentLabel: InherentRiskLabel(inherent),
		ControlScore:  controlScore,
		ControlLabel:  ControlEffectivenessLabel(controlScore),
		ResidualScore: residual,
		ResidualLabel: ResidualRiskLabel(residual),
	}
}
