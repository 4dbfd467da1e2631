package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/atomichabits/internal/config"
	"github.com/atomichabits/internal/handler"
	"github.com/atomichabits/internal/logger"
	"github.com/atomichabits/internal/metrics"
	"github.com/atomichabits/internal/middleware"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "habits_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.AppConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(), metrics.Middleware())

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   14 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	// 头像等上传文件
	uploadURL := strings.TrimRight(strings.TrimSpace(cfg.UploadURLPath), "/")
	if uploadURL != "" && strings.TrimSpace(cfg.UploadDir) != "" {
		if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
			logger.Warn("upload dir unavailable", "dir", cfg.UploadDir, "err", err)
		}
		r.Static(uploadURL, cfg.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := middleware.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst)

	users := r.Group("/users")
	{
		users.POST("/register/", limiter.Handler(), api.Register)
		users.POST("/login/", limiter.Handler(), api.Login)
		users.POST("/logout/", api.Logout)

		auth := users.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/:id/", api.GetUser)
			auth.PATCH("/:id/update/", api.UpdateUser)
			auth.POST("/:id/avatar/", api.UploadAvatar)
		}
	}

	habits := r.Group("/habits")
	habits.Use(handler.AuthRequired())
	{
		habits.POST("/create/", api.CreateHabit)
		habits.GET("/list/", api.ListHabits)
		habits.GET("/public_list/", api.ListPublicHabits)
		habits.GET("/:id/", api.GetHabit)
		habits.PATCH("/:id/update/", api.UpdateHabit)
		habits.PUT("/:id/update/", api.ReplaceHabit)
		habits.DELETE("/:id/delete/", api.DeleteHabit)
	}

	return r
}
