package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/models"
)

func CreateAuditTest(c *gin.Context) {
	var input models.NewAuditTest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	test, err := models.CreateAuditTest(c.Request.Context(), c.Param("identifier"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, test)
}

// testId resolves the :identifier route parameter (id or slug) to the row id.
func testId(c *gin.Context) (int, bool) {
	test, err := models.GetAuditTest(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return test.ID, true
}

func UpdateAuditTest(c *gin.Context) {
	id, ok := testId(c)
	if !ok {
		return
	}
	var input models.NewAuditTest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	test, err := models.UpdateAuditTest(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, test)
}

func UpdateAuditTestStatus(c *gin.Context) {
	id, ok := testId(c)
	if !ok {
		return
	}
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	test, err := models.UpdateAuditTestStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, test)
}

func GetAuditTest(c *gin.Context) {
	test, err := models.GetAuditTest(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, test)
}

func GetAuditTests(c *gin.Context) {
	programId, _ := strconv.Atoi(c.Query("programId"))
	tests, err := models.GetAuditTests(c.Request.Context(), programId, pageFilter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, tests)
}

func UpdateTestControls(c *gin.Context) {
	id, ok := testId(c)
	if !ok {
		return
	}
	var input processControlsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	rows, err := models.UpdateTestControls(c.Request.Context(), id, input.Pairs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}

type testUsersInput struct {
	UserIds []int `json:"user_ids" binding:"required"`
}

func UpdateTestUsers(c *gin.Context) {
	id, ok := testId(c)
	if !ok {
		return
	}
	var input testUsersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	rows, err := models.UpdateTestUsers(c.Request.Context(), id, input.UserIds)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, rows)
}
