package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"gorm.io/gorm"
)

// History is the append-only audit trail. Rows are written inside the same
// transaction as the mutation they describe.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	UserId        int       `gorm:"index" json:"user_id"`
	UserName      string    `gorm:"size:150" json:"user_name"`
	Action        string    `gorm:"size:50;not null" json:"action"`
	ReferenceId   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"index;size:100" json:"reference_type"`
	Description   string    `gorm:"size:500" json:"description"`
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// createHistory appends a trail row on the caller's transaction.
func createHistory(tx *gorm.DB, action string, referenceId int, referenceType string, description string) error {
	ctx := tx.Statement.Context
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)

	record := History{
		UserId:        userId,
		UserName:      userName,
		Action:        action,
		ReferenceId:   referenceId,
		ReferenceType: referenceType,
		Description:   description,
		CorrelationId: utils.GetCorrelationIdOrEmpty(ctx),
	}
	return tx.Create(&record).Error
}

type HistoryFilter struct {
	ReferenceType string `form:"referenceType"`
	ReferenceId   int    `form:"referenceId"`
	Limit         int    `form:"limit"`
	Offset        int    `form:"offset"`
}

func GetHistories(ctx context.Context, filter *HistoryFilter) ([]*History, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&History{}).Order("created_at DESC")
	if filter.ReferenceType != "" {
		dbCtx = dbCtx.Where("reference_type = ?", filter.ReferenceType)
	}
	if filter.ReferenceId != 0 {
		dbCtx = dbCtx.Where("reference_id = ?", filter.ReferenceId)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = config.SearchLimit
	}
	var results []*History
	if err := dbCtx.Limit(limit).Offset(filter.Offset).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
