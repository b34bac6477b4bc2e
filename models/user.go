package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

type User struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"size:150;not null" json:"name"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:150;not null" json:"email"`
	Phone        string    `gorm:"size:50" json:"phone"`
	Position     string    `gorm:"size:150" json:"position"`
	PasswordHash string    `gorm:"size:200;not null" json:"-"`
	RoleId       int       `gorm:"index;not null" json:"role_id"`
	Role         *Role     `gorm:"foreignKey:RoleId" json:"role,omitempty"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
	RoleId   int    `json:"role_id" binding:"required"`
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Role](ctx, input.RoleId); err != nil {
		return utils.ErrValidation("role not found")
	}
	if err := utils.ValidateUnique[User](ctx, "username", input.Username, id); err != nil {
		return err
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, id); err != nil {
		return err
	}
	if err := utils.ValidatePhoneNumber(input.Phone, "CO"); err != nil {
		return utils.ErrValidation(err.Error())
	}
	return nil
}

// CreateUser issues credentials: a generated initial password is hashed,
// stored, and emailed to the user. A delivery failure fails the whole
// operation, the row is not kept.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	initialPassword := uuid.NewString()[:12]
	hash, err := utils.HashPassword(initialPassword)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		Position:     input.Position,
		PasswordHash: string(hash),
		RoleId:       input.RoleId,
		IsActive:     utils.NewTrue(),
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKey(err) {
			return nil, &utils.UniquenessConflictError{EntityType: "User", Value: input.Username}
		}
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", user.ID, "User", "created user "+user.Username); err != nil {
		tx.Rollback()
		return nil, err
	}

	// credential issuance contract: no email, no account
	err = utils.GetNotifier().SendNotification(utils.Notification{
		To:      user.Email,
		Subject: "Credenciales de acceso",
		Text:    fmt.Sprintf("Usuario: %s\nContraseña temporal: %s", user.Username, initialPassword),
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &user, tx.Commit().Error
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {
	db := config.GetDB()

	if err := utils.ValidateResourceId[User](ctx, id); err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	user := User{ID: id}
	tx := db.Begin()
	err := tx.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"Name":     input.Name,
		"Username": input.Username,
		"Email":    input.Email,
		"Phone":    input.Phone,
		"Position": input.Position,
		"RoleId":   input.RoleId,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", id, "User", "updated user "+input.Username); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &user, tx.Commit().Error
}

func ToggleActiveUser(ctx context.Context, id int, isActive bool) (*User, error) {
	db := config.GetDB()

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(user).UpdateColumn("IsActive", isActive).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := "*INACTIVE*"
	if isActive {
		action = "*ACTIVE*"
	}
	if err := createHistory(tx.WithContext(ctx), action, id, "User", "toggled user "+user.Username); err != nil {
		tx.Rollback()
		return nil, err
	}

	return user, tx.Commit().Error
}

func Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := utils.FetchModelWhere[User](ctx, "username = ?", input.Username)
	if err != nil {
		return nil, utils.ErrAccountNotUsable("invalid credentials")
	}
	if !utils.DereferencePtr(user.IsActive) {
		return nil, utils.ErrAccountNotUsable("account is inactive")
	}
	if err := utils.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, utils.ErrAccountNotUsable("invalid credentials")
	}

	token, err := utils.JwtGenerate(user.ID, user.RoleId)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func ChangePassword(ctx context.Context, input *ChangePasswordInput) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return utils.ErrAccountNotUsable("not authenticated")
	}
	user, err := utils.FetchModel[User](ctx, userId)
	if err != nil {
		return err
	}
	if err := utils.ComparePassword(user.PasswordHash, input.CurrentPassword); err != nil {
		return utils.ErrAccountNotUsable("invalid credentials")
	}
	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}

	db := config.GetDB()
	return db.WithContext(ctx).Model(user).UpdateColumn("PasswordHash", string(hash)).Error
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id, "Role")
}

func GetUsers(ctx context.Context, page utils.PageFilter) ([]*User, error) {
	db := config.GetDB()
	var results []*User
	err := db.WithContext(ctx).Scopes(utils.ActiveScope(ctx), utils.PageScope(page)).Preload("Role").Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
