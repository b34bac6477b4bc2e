package models

import (
	"github.com/grcsuite/auditoria_backend/config"
)

// MigrateTable runs the schema migration for every model. Called once at
// startup after the database connection is established.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Company{},
		&Module{},
		&Role{},
		&RoleModule{},
		&User{},
		&Process{},
		&Risk{},
		&Control{},
		&Event{},
		&AuditProgram{},
		&AuditProcessControl{},
		&AuditUser{},
		&AuditTest{},
		&AuditTestControl{},
		&AuditTestUser{},
		&AuditFinding{},
		&AuditFindingControl{},
		&ActionPlan{},
		&Attachment{},
		&History{},
	)
}
