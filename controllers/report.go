package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
)

func GetHeatMap(c *gin.Context) {
	cells, err := models.GetHeatMap(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, cells)
}

func GetRiskMatrix(c *gin.Context) {
	rows, err := models.GetRiskMatrix(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

func GetDashboard(c *gin.Context) {
	dashboard, err := models.GetDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, dashboard)
}

func GetProgramReport(c *gin.Context) {
	report, err := models.GetProgramReport(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, report)
}

func ExportRiskMatrix(c *gin.Context) {
	data, fileName, err := models.ExportRiskMatrixXLSX(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func ExportProgramReport(c *gin.Context) {
	data, fileName, err := models.ExportProgramReportXLSX(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
