package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// Module is a permission surface of the application (processes, risks,
// controls, events, audit_programs, audit_tests, audit_findings,
// action_plans, users, roles, reports). Actions is a semicolon-joined list of
// the actions the module supports, e.g. "read;create;update;delete".
type Module struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Actions   string    `gorm:"not null" json:"actions"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewModule struct {
	Name    string `json:"name" binding:"required"`
	Actions string `json:"actions" binding:"required"`
}

// get ids of roles that have access to this module
func (module *Module) getRelatedRoleIds(ctx context.Context) ([]int, error) {
	var roleIds []int
	db := config.GetDB()

	err := db.WithContext(ctx).Model(&RoleModule{}).Select("role_id").
		Where("module_id = ?", module.ID).Scan(&roleIds).Error
	if err != nil {
		return nil, err
	}
	return roleIds, nil
}

func CreateModule(ctx context.Context, input *NewModule) (*Module, error) {
	db := config.GetDB()

	if err := utils.ValidateUnique[Module](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	module := Module{
		Name:    input.Name,
		Actions: input.Actions,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&module).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := utils.RemoveRedisList[Module](); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &module, tx.Commit().Error
}

func UpdateModule(ctx context.Context, id int, input *NewModule) (*Module, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[Module](ctx, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Module](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	module := Module{ID: id, Name: input.Name, Actions: input.Actions}

	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&module).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Actions": input.Actions,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// permission caches of every role touching the module go stale
	roleIds, err := module.getRelatedRoleIds(ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, roleId := range roleIds {
		if err := utils.ClearPathsCache(roleId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := utils.RemoveRedisBoth[Module](id); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &module, tx.Commit().Error
}

func DeleteModule(ctx context.Context, id int) (*Module, error) {
	db := config.GetDB()
	var result Module

	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	roleIds, err := result.getRelatedRoleIds(ctx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Where("module_id = ?", id).Delete(&RoleModule{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, roleId := range roleIds {
		if err := utils.ClearPathsCache(roleId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := utils.RemoveRedisBoth[Module](id); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &result, tx.Commit().Error
}

func GetModule(ctx context.Context, id int) (*Module, error) {
	return utils.FetchModel[Module](ctx, id)
}

func GetModules(ctx context.Context) ([]*Module, error) {
	cached, err := utils.RetrieveRedisList[Module]()
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var results []*Module
	if err := db.WithContext(ctx).Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	if err := utils.StoreRedisList[Module](results); err != nil {
		return nil, err
	}
	return results, nil
}
