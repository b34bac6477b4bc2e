package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
)

/* company */

func GetCompany(c *gin.Context) {
	company, err := models.GetCompany(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, company)
}

func UpdateCompany(c *gin.Context) {
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	company, err := models.UpdateCompany(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, company)
}

/* users */

func CreateUser(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

func UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := models.UpdateUser(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func ToggleActiveUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input toggleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := models.ToggleActiveUser(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func GetUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := models.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func GetUsers(c *gin.Context) {
	users, err := models.GetUsers(c.Request.Context(), pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

/* roles */

func CreateRole(c *gin.Context) {
	var input models.NewRole
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	role, err := models.CreateRole(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, role)
}

func UpdateRole(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewRole
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	role, err := models.UpdateRole(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, role)
}

func DeleteRole(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	role, err := models.DeleteRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, role)
}

func GetRole(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	role, err := models.GetRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, role)
}

func GetRoles(c *gin.Context) {
	roles, err := models.GetRoles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, roles)
}

/* modules */

func CreateModule(c *gin.Context) {
	var input models.NewModule
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	module, err := models.CreateModule(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, module)
}

func UpdateModule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewModule
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	module, err := models.UpdateModule(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, module)
}

func DeleteModule(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	module, err := models.DeleteModule(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, module)
}

func GetModules(c *gin.Context) {
	modules, err := models.GetModules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, modules)
}

/* audit trail */

func GetHistories(c *gin.Context) {
	var filter models.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondBindError(c, err)
		return
	}
	histories, err := models.GetHistories(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, histories)
}
