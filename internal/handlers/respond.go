package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// abortWithError writes the error body shared by every service.
func abortWithError(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": title, "message": message})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
