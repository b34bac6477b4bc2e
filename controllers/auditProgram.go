package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
)

func CreateAuditProgram(c *gin.Context) {
	var input models.NewAuditProgram
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.CreateAuditProgram(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, program)
}

func UpdateAuditProgram(c *gin.Context) {
	var input models.NewAuditProgram
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.UpdateAuditProgram(c.Request.Context(), c.Param("identifier"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func GetAuditProgram(c *gin.Context) {
	program, err := models.GetAuditProgram(c.Request.Context(), c.Param("identifier"),
		"ProcessControls.Process", "ProcessControls.Control", "AuditUsers.User", "AuditTests")
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func GetAuditPrograms(c *gin.Context) {
	var filter models.AuditProgramFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	programs, err := models.GetAuditPrograms(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, programs)
}

type statusInput struct {
	Status string `json:"status" binding:"required"`
}

func UpdatePlanningStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.UpdatePlanningStatus(c.Request.Context(), c.Param("identifier"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func UpdateExecutionStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.UpdateExecutionStatus(c.Request.Context(), c.Param("identifier"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func UpdateReportStatus(c *gin.Context) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.UpdateReportStatus(c.Request.Context(), c.Param("identifier"), input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func SuspendAuditProgram(c *gin.Context) {
	program, err := models.SuspendAuditProgram(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func ActivateAuditProgram(c *gin.Context) {
	program, err := models.ActivateAuditProgram(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

func UpdateReportNarrative(c *gin.Context) {
	var input models.ReportNarrative
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	program, err := models.UpdateReportNarrative(c.Request.Context(), c.Param("identifier"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, program)
}

type processControlsInput struct {
	Pairs []models.ProcessControlPair `json:"pairs" binding:"required"`
}

func UpdateProgramProcessControls(c *gin.Context) {
	var input processControlsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	rows, err := models.UpdateProgramProcessControls(c.Request.Context(), c.Param("identifier"), input.Pairs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

type programUsersInput struct {
	Users []*models.NewAuditUser `json:"users" binding:"required"`
}

func UpdateProgramUsers(c *gin.Context) {
	var input programUsersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	rows, err := models.UpdateProgramUsers(c.Request.Context(), c.Param("identifier"), input.Users)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}
