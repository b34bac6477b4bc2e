package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
)

func Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := models.Login(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

func ChangePassword(c *gin.Context) {
	var input models.ChangePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if err := models.ChangePassword(c.Request.Context(), &input); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"message": "password changed"})
}
