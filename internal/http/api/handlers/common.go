// Package handlers implements the console REST endpoints.
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorID extracts the acting user from the X-User-Id header. The console
// runs without authentication; deployments front it with their own gateway,
// which injects the header. Absent or malformed headers fall back to the
// default operator.
func operatorID(c *gin.Context) uint64 {
	raw := strings.TrimSpace(c.GetHeader("X-User-Id"))
	if raw == "" {
		return 1
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 1
	}
	return id
}

// projectID extracts the active project from the X-Project-Id header,
// defaulting to the initial project.
func projectID(c *gin.Context) uint64 {
	raw := strings.TrimSpace(c.GetHeader("X-Project-Id"))
	if raw == "" {
		return 1
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 1
	}
	return id
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
