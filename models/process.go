package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// Process is a business process of the organization. Controls reach a process
// through the risks that cover it (process <-> risk <-> control).
type Process struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"index;size:200;not null" json:"name"`
	Description string    `gorm:"size:1000" json:"description"`
	Owner       string    `gorm:"size:150" json:"owner"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	Risks       []*Risk   `gorm:"many2many:risk_processes" json:"risks,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProcess struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

func CreateProcess(ctx context.Context, input *NewProcess) (*Process, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[Process](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	process := Process{
		Name:        input.Name,
		Description: input.Description,
		Owner:       input.Owner,
		IsActive:    utils.NewTrue(),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&process).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", process.ID, "Process", "created process "+process.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &process, tx.Commit().Error
}

func UpdateProcess(ctx context.Context, id int, input *NewProcess) (*Process, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[Process](ctx, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Process](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	process := Process{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&process).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Description": input.Description,
		"Owner":       input.Owner,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "Process", "updated process "+input.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &process, tx.Commit().Error
}

// ToggleActiveProcess soft-deletes/restores. Deactivation is rejected while
// any audit program still references the process.
func ToggleActiveProcess(ctx context.Context, id int, isActive bool) (*Process, error) {
	db := config.GetDB()

	process, err := utils.FetchModel[Process](ctx, id)
	if err != nil {
		return nil, err
	}

	if !isActive {
		count, err := utils.ResourceCountWhere[AuditProcessControl](ctx, "id_process = ?", id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, utils.ErrAssociationConflict("process %q is referenced by %d audit program association(s)", process.Name, count)
		}
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(process).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "Process", "toggled process "+process.Name); err != nil {
		tx.Rollback()
		return nil, err
	}
	return process, tx.Commit().Error
}

func GetProcess(ctx context.Context, id int) (*Process, error) {
	return utils.FetchModel[Process](ctx, id, "Risks", "Risks.Controls")
}

func GetProcesses(ctx context.Context, page utils.PageFilter) ([]*Process, error) {
	db := config.GetDB()
	var results []*Process
	err := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx), utils.PageScope(page)).Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// processHasActiveControl reports, for each candidate process id, whether at
// least one active control reaches it through its risks. Used when widening a
// program's process set.
func processActiveControlCounts(ctx context.Context, processIds []int) (map[int]int64, error) {
	db := config.GetDB()
	type row struct {
		ProcessId int
		Count     int64
	}
	var rows []row
	err := db.WithContext(ctx).
		Table("risk_processes").
		Select("risk_processes.process_id AS process_id, COUNT(controls.id) AS count").
		Joins("INNER JOIN risk_controls ON risk_controls.risk_id = risk_processes.risk_id").
		Joins("INNER JOIN controls ON controls.id = risk_controls.control_id AND controls.is_active = ?", true).
		Where("risk_processes.process_id IN ?", processIds).
		Group("risk_processes.process_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.ProcessId] = r.Count
	}
	return counts, nil
}
