package models

import (
	"context"
	"fmt"
	"time"

	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// Attachment is an evidence file linked to a finding. The bytes live in the
// configured storage backend; only the object key is stored here.
type Attachment struct {
	ID             int       `gorm:"primary_key" json:"id"`
	IdAuditFinding int       `gorm:"index;not null" json:"id_audit_finding"`
	FileName       string    `gorm:"size:250;not null" json:"file_name"`
	ContentType    string    `gorm:"size:100" json:"content_type"`
	ObjectKey      string    `gorm:"size:500;not null" json:"object_key"`
	SizeBytes      int64     `json:"size_bytes"`
	UploadedById   int       `gorm:"index" json:"uploaded_by_id"`
	UploadedBy     *User     `gorm:"foreignKey:UploadedById" json:"uploaded_by,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CreateAttachment uploads the evidence bytes first, then records the row.
// If the insert fails the uploaded object is removed again.
func CreateAttachment(ctx context.Context, findingId int, fileName string, contentType string, data []byte) (*Attachment, error) {
	db := config.GetDB()

	finding, err := utils.FetchModel[AuditFinding](ctx, findingId)
	if err != nil {
		return nil, utils.ErrValidation("audit finding not found")
	}
	program, err := utils.FetchModel[AuditProgram](ctx, finding.IdAuditProgram)
	if err != nil {
		return nil, err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, utils.ErrValidation("attachment is empty")
	}

	folder := fmt.Sprintf("findings/%d", finding.ID)
	objectKey, err := utils.GetStorageProvider().Upload(ctx, folder, fileName, data, contentType)
	if err != nil {
		return nil, err
	}

	uploaderId, _ := utils.GetUserIdFromContext(ctx)
	attachment := Attachment{
		IdAuditFinding: finding.ID,
		FileName:       fileName,
		ContentType:    contentType,
		ObjectKey:      objectKey,
		SizeBytes:      int64(len(data)),
		UploadedById:   uploaderId,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&attachment).Error; err != nil {
		tx.Rollback()
		_ = utils.GetStorageProvider().Delete(ctx, objectKey)
		return nil, err
	}
	if err := createHistory(tx.WithContext(ctx), "*CREATE*", attachment.ID, "Attachment", "attached "+fileName+" to "+finding.Slug); err != nil {
		tx.Rollback()
		_ = utils.GetStorageProvider().Delete(ctx, objectKey)
		return nil, err
	}
	return &attachment, tx.Commit().Error
}

// DeleteAttachment removes the row and then the stored object. A storage
// failure after commit is logged, not surfaced: the row is already gone.
func DeleteAttachment(ctx context.Context, id int) error {
	db := config.GetDB()
	logger := config.GetLogger()

	attachment, err := utils.FetchModel[Attachment](ctx, id)
	if err != nil {
		return err
	}
	finding, err := utils.FetchModel[AuditFinding](ctx, attachment.IdAuditFinding)
	if err != nil {
		return err
	}
	program, err := utils.FetchModel[AuditProgram](ctx, finding.IdAuditProgram)
	if err != nil {
		return err
	}
	if err := program.CheckPhaseGate(PhaseExecution); err != nil {
		return err
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Delete(attachment).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := createHistory(tx.WithContext(ctx), "*DELETE*", id, "Attachment", "removed "+attachment.FileName+" from "+finding.Slug); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	if err := utils.GetStorageProvider().Delete(ctx, attachment.ObjectKey); err != nil {
		config.LogError(logger, "models", "DeleteAttachment", "storage delete failed", attachment.ObjectKey, err)
	}
	return nil
}

func GetAttachments(ctx context.Context, findingId int) ([]*Attachment, error) {
	db := config.GetDB()
	var rows []*Attachment
	err := db.WithContext(ctx).
		Where("id_audit_finding = ?", findingId).
		Preload("UploadedBy").
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
