package models

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
	"gorm.io/gorm"
)

type Role struct {
	ID          int           `gorm:"primary_key" json:"id"`
	Name        string        `gorm:"uniqueIndex;size:100;not null" json:"name"`
	IsAdmin     *bool         `gorm:"not null;default:false" json:"is_admin"`
	RoleModules []*RoleModule `gorm:"foreignKey:RoleId" json:"role_modules,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type RoleModule struct {
	ID             int     `gorm:"primary_key" json:"id"`
	RoleId         int     `gorm:"index;not null" json:"role_id"`
	ModuleId       int     `gorm:"index;not null" json:"module_id"`
	Module         *Module `gorm:"foreignKey:ModuleId" json:"module,omitempty"`
	AllowedActions string  `gorm:"not null" json:"allowed_actions"`
}

type NewRole struct {
	Name           string              `json:"name" binding:"required"`
	IsAdmin        *bool               `json:"is_admin"`
	AllowedModules []*NewAllowedModule `json:"allowed_modules"`
}

type NewAllowedModule struct {
	ModuleID       int    `json:"module_id"`
	AllowedActions string `json:"allowed_actions"`
}

func extractModuleActions(s string) []string {
	return strings.Split(strings.ToLower(s), ";")
}

// GetAllowedPathsFromRole resolves "module:action" keys for a role, cached in
// redis and invalidated on role/module changes.
func GetAllowedPathsFromRole(ctx context.Context, roleId int) (map[string]bool, error) {
	cacheKey := "AllowedPaths:Role:" + fmt.Sprint(roleId)

	allowedPaths := make(map[string]bool)
	exists, err := config.GetRedisObject(cacheKey, &allowedPaths)
	if err != nil {
		return nil, err
	}
	if exists {
		return allowedPaths, nil
	}

	db := config.GetDB()
	var role Role
	if err := db.WithContext(ctx).Preload("RoleModules").Preload("RoleModules.Module").Where("id = ?", roleId).First(&role).Error; err != nil {
		return nil, err
	}

	for _, permission := range role.RoleModules {
		if permission.Module == nil {
			continue
		}
		validActions := extractModuleActions(permission.Module.Actions)
		allowedActions := extractModuleActions(permission.AllowedActions)
		for _, action := range allowedActions {
			if slices.Contains(validActions, action) {
				allowedPaths[permission.Module.Name+":"+action] = true
			}
		}
	}

	if err := config.SetRedisObject(cacheKey, allowedPaths, utils.GetCacheLifespan()); err != nil {
		return nil, err
	}
	return allowedPaths, nil
}

func mapRoleModules(ctx context.Context, input []*NewAllowedModule) ([]*RoleModule, error) {
	availableModuleActions := make(map[int]string, 0) // moduleId:actions
	var modules []Module
	db := config.GetDB()
	if err := db.WithContext(ctx).Find(&modules).Error; err != nil {
		return nil, err
	}
	for _, m := range modules {
		availableModuleActions[m.ID] = m.Actions
	}

	var roleModules []*RoleModule
	for _, permission := range input {
		availableActionsString, ok := availableModuleActions[permission.ModuleID]
		if !ok || availableActionsString == "" {
			return nil, utils.ErrValidation("module_id not found")
		}
		availableActions := extractModuleActions(availableActionsString)
		inputActions := extractModuleActions(permission.AllowedActions)
		for _, action := range inputActions {
			if !slices.Contains(availableActions, action) {
				return nil, utils.ErrValidation("invalid module action")
			}
		}

		roleModules = append(roleModules, &RoleModule{
			ModuleId:       permission.ModuleID,
			AllowedActions: permission.AllowedActions,
		})
	}
	return roleModules, nil
}

func CreateRole(ctx context.Context, input *NewRole) (*Role, error) {
	if err := utils.ValidateUnique[Role](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}
	roleModules, err := mapRoleModules(ctx, input.AllowedModules)
	if err != nil {
		return nil, err
	}

	role := Role{
		Name:        input.Name,
		IsAdmin:     input.IsAdmin,
		RoleModules: roleModules,
	}
	if role.IsAdmin == nil {
		role.IsAdmin = utils.NewFalse()
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func UpdateRole(ctx context.Context, id int, input *NewRole) (*Role, error) {
	if err := utils.ValidateResourceId[Role](ctx, id); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Role](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}
	roleModules, err := mapRoleModules(ctx, input.AllowedModules)
	if err != nil {
		return nil, err
	}

	role := Role{ID: id, Name: input.Name}

	db := config.GetDB()
	tx := db.Begin()

	// full replace, delete excluded
	err = tx.WithContext(ctx).Model(&role).
		Session(&gorm.Session{FullSaveAssociations: true, SkipHooks: true}).
		Association("RoleModules").Unscoped().Replace(roleModules)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	err = tx.WithContext(ctx).Model(&role).Updates(map[string]interface{}{
		"Name": input.Name,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := utils.ClearPathsCache(id); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &role, tx.Commit().Error
}

func DeleteRole(ctx context.Context, id int) (*Role, error) {
	db := config.GetDB()
	result, err := utils.FetchModel[Role](ctx, id)
	if err != nil {
		return nil, err
	}

	// don't allow if a user is using the role
	count, err := utils.ResourceCountWhere[User](ctx, "role_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrAssociationConflict("role is assigned to %d user(s)", count)
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Select("RoleModules").Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := utils.ClearPathsCache(id); err != nil {
		tx.Rollback()
		return nil, err
	}
	return result, tx.Commit().Error
}

func GetRole(ctx context.Context, id int) (*Role, error) {
	return utils.FetchModel[Role](ctx, id, "RoleModules", "RoleModules.Module")
}

func GetRoles(ctx context.Context) ([]*Role, error) {
	db := config.GetDB()
	var results []*Role
	if err := db.WithContext(ctx).Preload("RoleModules").Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
