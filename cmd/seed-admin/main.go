// Command seed-admin bootstraps a fresh deployment: company profile,
// permission modules, the administrator role and the first admin user.
// It is idempotent; existing rows are left alone.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/grcsuite/auditoria_backend/utils"
	"github.com/joho/godotenv"
)

const fullActions = "read;create;update;delete"

var moduleNames = []string{
	"companies",
	"users",
	"roles",
	"modules",
	"processes",
	"risks",
	"controls",
	"events",
	"audit_programs",
	"audit_tests",
	"audit_findings",
	"action_plans",
	"attachments",
	"reports",
	"histories",
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	godotenv.Load()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()

	if err := models.MigrateTable(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// company
	var companyCount int64
	if err := db.Model(&models.Company{}).Count(&companyCount).Error; err != nil {
		log.Fatalf("counting companies: %v", err)
	}
	if companyCount == 0 {
		month, err := strconv.Atoi(envOr("SEED_FISCAL_YEAR_START_MONTH", "1"))
		if err != nil || month < 1 || month > 12 {
			month = 1
		}
		company := models.Company{
			Name:                 envOr("SEED_COMPANY_NAME", "Mi Empresa"),
			FiscalYearStartMonth: month,
		}
		if err := db.Create(&company).Error; err != nil {
			log.Fatalf("seeding company: %v", err)
		}
		log.Printf("seeded company %q", company.Name)
	}

	// permission modules
	for _, name := range moduleNames {
		var count int64
		if err := db.Model(&models.Module{}).Where("name = ?", name).Count(&count).Error; err != nil {
			log.Fatalf("counting module %s: %v", name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&models.Module{Name: name, Actions: fullActions}).Error; err != nil {
			log.Fatalf("seeding module %s: %v", name, err)
		}
		log.Printf("seeded module %s", name)
	}

	// administrator role
	var role models.Role
	err := db.Where("name = ?", "Administrador").First(&role).Error
	if err != nil {
		role = models.Role{Name: "Administrador", IsAdmin: utils.NewTrue()}
		if err := db.Create(&role).Error; err != nil {
			log.Fatalf("seeding admin role: %v", err)
		}
		log.Printf("seeded role %s", role.Name)
	}

	// first admin user
	username := envOr("SEED_ADMIN_USERNAME", "admin")
	var userCount int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&userCount).Error; err != nil {
		log.Fatalf("counting users: %v", err)
	}
	if userCount == 0 {
		password := os.Getenv("SEED_ADMIN_PASSWORD")
		if password == "" {
			log.Fatal("SEED_ADMIN_PASSWORD is required to create the admin user")
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			log.Fatalf("hashing password: %v", err)
		}
		user := models.User{
			Name:         envOr("SEED_ADMIN_NAME", "Administrador"),
			Username:     username,
			Email:        envOr("SEED_ADMIN_EMAIL", "admin@example.com"),
			PasswordHash: string(hash),
			RoleId:       role.ID,
			IsActive:     utils.NewTrue(),
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("seeding admin user: %v", err)
		}
		log.Printf("seeded admin user %s", user.Username)
	}

	log.Println("seed complete")
}
