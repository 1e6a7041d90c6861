package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/postforge/postforge/internal/config"
	handlers "github.com/postforge/postforge/internal/http/api/admin/handlers"
	"github.com/postforge/postforge/internal/ledger"
	"github.com/postforge/postforge/internal/models"
	"github.com/postforge/postforge/internal/security"
	"github.com/postforge/postforge/internal/settings"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers admin routes, middleware, and handlers.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, ldg *ledger.Ledger, store *settings.Store) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	adminGroup := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	adminGroup.POST("/login", authHandler.Login)

	authed := adminGroup.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	accountHandler := handlers.NewAccountHandler(db, ldg)
	authed.GET("/accounts", accountHandler.List)
	authed.GET("/accounts/:chat_id", accountHandler.Get)
	authed.PUT("/accounts/:chat_id/plan", accountHandler.SetPlan)
	authed.POST("/accounts/:chat_id/unlock", accountHandler.Unlock)

	paymentHandler := handlers.NewPaymentHandler(db, ldg)
	authed.GET("/payments", paymentHandler.List)
	authed.POST("/payments/:id/approve", paymentHandler.Approve)
	authed.POST("/payments/:id/reject", paymentHandler.Reject)

	generationHandler := handlers.NewGenerationHandler(db)
	authed.GET("/generations", generationHandler.List)

	settingHandler := handlers.NewSettingHandler(db, store)
	authed.GET("/settings", settingHandler.List)
	authed.GET("/settings/:key", settingHandler.Get)
	authed.PUT("/settings/:key", settingHandler.Update)
}

// adminAuthMiddleware validates admin JWTs and loads admin context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Next()
	}
}
