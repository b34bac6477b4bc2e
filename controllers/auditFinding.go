package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/grcsuite/auditoria_backend/utils"
)

func CreateAuditFinding(c *gin.Context) {
	var input models.NewAuditFinding
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	finding, err := models.CreateAuditFinding(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, finding)
}

// findingId resolves the :identifier route parameter (id or slug) to the row id.
func findingId(c *gin.Context) (int, bool) {
	finding, err := models.GetAuditFinding(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return finding.ID, true
}

func UpdateAuditFinding(c *gin.Context) {
	id, ok := findingId(c)
	if !ok {
		return
	}
	var input models.NewAuditFinding
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	finding, err := models.UpdateAuditFinding(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, finding)
}

func GetAuditFinding(c *gin.Context) {
	finding, err := models.GetAuditFinding(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, finding)
}

func GetAuditFindings(c *gin.Context) {
	var filter models.AuditFindingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	findings, err := models.GetAuditFindings(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, findings)
}

func UpdateFindingControls(c *gin.Context) {
	id, ok := findingId(c)
	if !ok {
		return
	}
	var input processControlsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	rows, err := models.UpdateFindingControls(c.Request.Context(), id, input.Pairs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

/* action plans */

func CreateActionPlan(c *gin.Context) {
	var input models.NewActionPlan
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	plan, err := models.CreateActionPlan(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, plan)
}

func UpdateActionPlan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewActionPlan
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	plan, err := models.UpdateActionPlan(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, plan)
}

func ToggleActiveActionPlan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	plan, err := models.ToggleActiveActionPlan(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, plan)
}

func GetActionPlan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	plan, err := models.GetActionPlan(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, plan)
}

func GetActionPlans(c *gin.Context) {
	findingId, _ := strconv.Atoi(c.Query("findingId"))
	plans, err := models.GetActionPlans(c.Request.Context(), findingId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, plans)
}

/* attachments */

const maxAttachmentSize = 20 << 20 // 20 MiB

func UploadAttachment(c *gin.Context) {
	findingId, err := strconv.Atoi(c.PostForm("finding_id"))
	if err != nil || findingId <= 0 {
		respondError(c, utils.ErrValidation("invalid finding_id"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, utils.ErrValidation("file is required"))
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		respondError(c, utils.ErrValidation("file exceeds the 20MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, err)
		return
	}

	attachment, err := models.CreateAttachment(c.Request.Context(), findingId,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, attachment)
}

func DeleteAttachment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := models.DeleteAttachment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "attachment removed"})
}

func GetAttachments(c *gin.Context) {
	findingId, err := strconv.Atoi(c.Query("findingId"))
	if err != nil || findingId <= 0 {
		respondError(c, utils.ErrValidation("invalid findingId"))
		return
	}
	attachments, err := models.GetAttachments(c.Request.Context(), findingId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, attachments)
}
