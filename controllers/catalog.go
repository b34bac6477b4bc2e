package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
	"github.com/grcsuite/auditoria_backend/utils"
)

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, utils.ErrValidation("invalid id"))
		return 0, false
	}
	return id, true
}

type toggleInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

/* processes */

func CreateProcess(c *gin.Context) {
	var input models.NewProcess
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	process, err := models.CreateProcess(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, process)
}

func UpdateProcess(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewProcess
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	process, err := models.UpdateProcess(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, process)
}

func ToggleActiveProcess(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	process, err := models.ToggleActiveProcess(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, process)
}

func GetProcess(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	process, err := models.GetProcess(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, process)
}

func GetProcesses(c *gin.Context) {
	processes, err := models.GetProcesses(c.Request.Context(), pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, processes)
}

/* risks */

func CreateRisk(c *gin.Context) {
	var input models.NewRisk
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	risk, err := models.CreateRisk(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, risk)
}

func UpdateRisk(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewRisk
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	risk, err := models.UpdateRisk(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, risk)
}

func ToggleActiveRisk(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	risk, err := models.ToggleActiveRisk(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, risk)
}

func GetRisk(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	risk, err := models.GetRisk(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, risk)
}

func GetRisks(c *gin.Context) {
	risks, err := models.GetRisks(c.Request.Context(), pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, risks)
}

/* controls */

func CreateControl(c *gin.Context) {
	var input models.NewControl
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	control, err := models.CreateControl(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, control)
}

func UpdateControl(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewControl
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	control, err := models.UpdateControl(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, control)
}

func ToggleActiveControl(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	control, err := models.ToggleActiveControl(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, control)
}

func GetControl(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	control, err := models.GetControl(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, control)
}

func GetControls(c *gin.Context) {
	controls, err := models.GetControls(c.Request.Context(), pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, controls)
}

/* events */

func CreateEvent(c *gin.Context) {
	var input models.NewEvent
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	event, err := models.CreateEvent(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, event)
}

func UpdateEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewEvent
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	event, err := models.UpdateEvent(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, event)
}

func ToggleActiveEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	event, err := models.ToggleActiveEvent(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, event)
}

func GetEvent(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	event, err := models.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, event)
}

func GetEvents(c *gin.Context) {
	events, err := models.GetEvents(c.Request.Context(), pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, events)
}
