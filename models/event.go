package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"github.com/shopspring/decimal"
)

// Event is a materialized loss/incident record tied to a process and,
// optionally, the risk that it realized.
type Event struct {
	ID          int             `gorm:"primary_key" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description string          `gorm:"size:1000" json:"description"`
	EventDate   time.Time       `gorm:"not null" json:"event_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2)" json:"amount"`
	ProcessId   int             `gorm:"index;not null" json:"process_id"`
	Process     *Process        `gorm:"foreignKey:ProcessId" json:"process,omitempty"`
	RiskId      *int            `gorm:"index" json:"risk_id"`
	Risk        *Risk           `gorm:"foreignKey:RiskId" json:"risk,omitempty"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEvent struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	EventDate   time.Time       `json:"event_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ProcessId   int             `json:"process_id" binding:"required"`
	RiskId      *int            `json:"risk_id"`
}

func (input *NewEvent) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Process](ctx, input.ProcessId); err != nil {
		return utils.ErrValidation("process not found")
	}
	if input.RiskId != nil {
		if err := utils.ValidateResourceId[Risk](ctx, *input.RiskId); err != nil {
			return utils.ErrValidation("risk not found")
		}
	}
	return nil
}

func CreateEvent(ctx context.Context, input *NewEvent) (*Event, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	event := Event{
		Name:        input.Name,
		Description: input.Description,
		EventDate:   input.EventDate,
		Amount:      input.Amount,
		ProcessId:   input.ProcessId,
		RiskId:      input.RiskId,
		IsActive:    utils.NewTrue(),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&event).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", event.ID, "Event", "created event "+event.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &event, tx.Commit().Error
}

func UpdateEvent(ctx context.Context, id int, input *NewEvent) (*Event, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[Event](ctx, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	event := Event{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&event).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"EventDate":   input.EventDate,
		"Amount":      input.Amount,
		"ProcessId":   input.ProcessId,
		"RiskId":      input.RiskId,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "Event", "updated event "+input.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &event, tx.Commit().Error
}

func ToggleActiveEvent(ctx context.Context, id int, isActive bool) (*Event, error) {
	db := config.GetDB()

	event, err := utils.FetchModel[Event](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(event).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "Event", "toggled event "+event.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return event, tx.Commit().Error
}

func GetEvent(ctx context.Context, id int) (*Event, error) {
	return utils.FetchModel[Event](ctx, id, "Process", "Risk")
}

func GetEvents(ctx context.Context, page utils.PageFilter) ([]*Event, error) {
	db := config.GetDB()
	var results []*Event
	err := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx), utils.PageScope(page)).Preload("Process").Order("event_date DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
