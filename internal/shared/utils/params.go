package utils

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseUintParam extracts a positive numeric path parameter. On failure it
// writes a 400 response and returns an error the handler should bail on.
func ParseUintParam(c *gin.Context, paramName, entityName string) (uint, error) {
	raw := c.Param(paramName)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid %s ID", entityName))
		return 0, fmt.Errorf("invalid %s parameter: %q", paramName, raw)
	}
	return uint(id), nil
}

// QueryInt reads an optional integer query parameter with a default.
func QueryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
