package models

import (
	"github.com/grcsuite/auditoria_backend/utils"
	"gorm.io/gorm"
)

// GenerateSlug derives the unique human-readable identifier for a program,
// test or finding: normalized name plus the -FY<year> suffix.
//
// Uniqueness is checked over ALL rows, soft-deleted/suspended ones included:
// the audit trail is append-only, so a suspended program keeps its slug
// reserved within the fiscal year. The check runs on the caller's transaction
// handle so check-then-insert cannot race a concurrent writer inside the same
// operation.
func GenerateSlug(tx *gorm.DB, name string, fiscalYear int, entityType string) (string, error) {
	slug := utils.SlugWithFiscalYear(name, fiscalYear)

	var count int64
	var err error
	switch entityType {
	case EntityTypeAuditProgram:
		err = tx.Model(&AuditProgram{}).Where("slug = ?", slug).Count(&count).Error
	case EntityTypeAuditTest:
		err = tx.Model(&AuditTest{}).Where("slug = ?", slug).Count(&count).Error
	case EntityTypeAuditFinding:
		err = tx.Model(&AuditFinding{}).Where("slug = ?", slug).Count(&count).Error
	default:
		return "", utils.ErrValidation("unknown entity type for slug generation")
	}
	if err != nil {
		return "", err
	}
	if count > 0 {
		return "", &utils.UniquenessConflictError{EntityType: entityType, Value: slug}
	}
	return slug, nil
}
