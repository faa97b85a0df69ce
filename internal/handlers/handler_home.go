package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// healthCheck reports process liveness.
func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
