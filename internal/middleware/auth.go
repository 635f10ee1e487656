package middleware

import (
	"strings"
	"sync"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		util.SetUserInContext(c, claims)
		c.Next()
	}
}

// RoleMiddleware lets admins through regardless of the listed roles.
func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := user.Role == model.RoleAdmin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

type UserActivityRecorder interface {
	TouchLastSeen(userID uint) error
}

// ActivityMiddleware records last-seen asynchronously, at most once per
// interval per user.
func ActivityMiddleware(rec UserActivityRecorder, interval time.Duration) gin.HandlerFunc {
	var last sync.Map
	return func(c *gin.Context) {
		claims := util.GetUserFromContext(c)
		if claims != nil {
			now := time.Now()
			prev, loaded := last.Load(claims.UserID)
			if !loaded || now.Sub(prev.(time.Time)) >= interval {
				last.Store(claims.UserID, now)
				userID := claims.UserID
				go func() {
					if err := rec.TouchLastSeen(userID); err != nil {
						logger.Log.Warn("Failed to update last seen", zap.Uint("user_id", userID), zap.Error(err))
					}
				}()
			}
		}
		c.Next()
	}
}
