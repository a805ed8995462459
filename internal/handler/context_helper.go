package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academia-sys/academia-api/internal/middleware"
	"github.com/academia-sys/academia-api/internal/models"
	appErrors "github.com/academia-sys/academia-api/pkg/errors"
)

// currentPrincipal extracts the authenticated principal from the gin context.
func currentPrincipal(c *gin.Context) (*models.Principal, error) {
	principal, ok := middleware.Principal(c)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return principal, nil
}

// paramID parses a positive int64 route parameter.
func paramID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return id, nil
}

// queryID parses an optional positive int64 query parameter, zero when absent.
func queryID(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// pageParams parses the shared pagination query parameters.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		size = 20
	}
	return page, size
}
