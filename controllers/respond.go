package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grcsuite/auditoria_backend/config"
	"github.com/grcsuite/auditoria_backend/utils"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Bodies are
// always {"errors": [...]} so clients parse one shape.
func respondError(c *gin.Context, err error) {
	var permissionErr *utils.PermissionDeniedError
	var phaseErr *utils.PhaseConflictError
	var associationErr *utils.AssociationConflictError
	var uniquenessErr *utils.UniquenessConflictError
	var validationErr *utils.ValidationError

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"errors": []string{"record not found"}})
	case errors.As(err, &permissionErr):
		status := http.StatusForbidden
		if permissionErr.AccountProblem {
			status = http.StatusNotAcceptable
		}
		c.JSON(status, gin.H{"errors": []string{permissionErr.Message}})
	case errors.As(err, &phaseErr):
		c.JSON(http.StatusPreconditionFailed, gin.H{"errors": []string{phaseErr.Message}})
	case errors.As(err, &associationErr):
		c.JSON(http.StatusConflict, gin.H{"errors": []string{associationErr.Message}})
	case errors.As(err, &uniquenessErr):
		c.JSON(http.StatusConflict, gin.H{"errors": []string{uniquenessErr.Error()}})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": validationErr.Messages})
	default:
		logger := config.GetLogger()
		config.LogError(logger, "controllers", "respondError", "unhandled error", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"errors": []string{"internal server error"}})
	}
}

// respondBindError turns gin/validator binding failures into a 400 with the
// field problems listed.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// pageFilter reads ?limit= and ?offset=; malformed values fall back to the
// defaults applied by the query scope.
func pageFilter(c *gin.Context) utils.PageFilter {
	var page utils.PageFilter
	_ = c.ShouldBindQuery(&page)
	return page
}
