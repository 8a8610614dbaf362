package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tale-server/internal/models"
)

const (
	userIDHeader     = "X-User-ID"
	userIDContextKey = "user_id"
)

// RequireUser извлекает идентификатор пользователя из заголовка X-User-ID.
// Аутентификацию выполняет вышестоящий шлюз, здесь мы доверяем заголовку.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(userIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeBadRequest,
				Message: "missing " + userIDHeader + " header",
			})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Code:    models.ErrCodeBadRequest,
				Message: "invalid " + userIDHeader + " header",
			})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// userIDFrom возвращает идентификатор пользователя, установленный RequireUser.
func userIDFrom(c *gin.Context) uuid.UUID {
	value, ok := c.Get(userIDContextKey)
	if !ok {
		return uuid.Nil
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}
