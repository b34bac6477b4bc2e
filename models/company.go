package models

import (
	"context"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// Company is the single organization this deployment serves. Its fiscal-year
// start month scopes every audit program's audited period.
type Company struct {
	ID                   int       `gorm:"primary_key" json:"id"`
	Name                 string    `gorm:"size:200;not null" json:"name"`
	Nit                  string    `gorm:"size:50" json:"nit"`
	Address              string    `gorm:"size:250" json:"address"`
	Phone                string    `gorm:"size:50" json:"phone"`
	Email                string    `gorm:"size:150" json:"email"`
	FiscalYearStartMonth int       `gorm:"not null;default:1" json:"fiscal_year_start_month"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCompany struct {
	Name                 string `json:"name" binding:"required"`
	Nit                  string `json:"nit"`
	Address              string `json:"address"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	FiscalYearStartMonth int    `json:"fiscal_year_start_month" binding:"required,min=1,max=12"`
}

func (c *Company) FiscalYearStart() time.Month {
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return time.January
	}
	return time.Month(c.FiscalYearStartMonth)
}

// GetCompany returns the single company row.
func GetCompany(ctx context.Context) (*Company, error) {
	db := config.GetDB()
	var company Company
	if err := db.WithContext(ctx).First(&company).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &company, nil
}

func UpdateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	db := config.GetDB()

	company, err := GetCompany(ctx)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidatePhoneNumber(input.Phone, "CO"); err != nil {
		return nil, utils.ErrValidation(err.Error())
	}

	tx := db.Begin()
	err = tx.WithContext(ctx).Model(company).Updates(map[string]interface{}{
		"Name":                 input.Name,
		"Nit":                  input.Nit,
		"Address":              input.Address,
		"Phone":                input.Phone,
		"Email":                input.Email,
		"FiscalYearStartMonth": input.FiscalYearStartMonth,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*UPDATE*", company.ID, "Company", "updated company profile"); err != nil {
		tx.Rollback()
		return nil, err
	}

	return company, tx.Commit().Error
}

// CreateCompany seeds the single company row; rejects a second one.
func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&Company{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.ErrValidation("company already configured")
	}

	company := Company{
		Name:                 input.Name,
		Nit:                  input.Nit,
		Address:              input.Address,
		Phone:                input.Phone,
		Email:                input.Email,
		FiscalYearStartMonth: input.FiscalYearStartMonth,
	}
	if err := db.WithContext(ctx).Create(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
