package handler

import (
	"net/http"
	"strings"

	"forge-server/internal/models"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// AuthMiddleware validates the Bearer token and puts the user id into the
// request context.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeUnauthorized,
				Message: "Authorization header is missing",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeUnauthorized,
				Message: "Authorization header must be in 'Bearer <token>' format",
			})
			return
		}

		userID, err := h.auth.ParseToken(parts[1])
		if err != nil {
			handleServiceError(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
