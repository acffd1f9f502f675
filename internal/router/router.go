package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/filmbox/internal/handler"
	"github.com/user/filmbox/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 认证 ====================
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}

	authed := r.Group("/auth")
	authed.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		authed.PUT("/me", h.UpdateProfile)
		authed.PUT("/me/password", h.UpdatePassword)
	}

	// ==================== 目录与热搜（公开）====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		api.GET("/movies", h.ListMovies)
		api.GET("/movies/:id", h.MovieDetails)
		api.GET("/movies/:id/similar", h.SimilarMovies)
		api.GET("/trending", h.Trending)
	}

	// ==================== 收藏（需要登录）====================
	saved := r.Group("/api/saved")
	saved.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		saved.GET("", h.ListSaved)
		saved.POST("", h.SaveMovie)
		saved.GET("/:movieId", h.GetSaved)
		saved.DELETE("/:movieId", h.UnsaveMovie)
		saved.GET("/:movieId/status", h.SavedStatus)
	}
}
