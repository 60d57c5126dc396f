package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/annoforge/annotator-api/internal/middleware"
)

func sessionFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return ""
	}
	sessionID, ok := value.(string)
	if !ok {
		return ""
	}
	return sessionID
}
