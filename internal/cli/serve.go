package cli

import (
	"fmt"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/handler"
	"github.com/atomichabits/internal/logger"
	"github.com/atomichabits/internal/router"
	"github.com/gin-gonic/gin"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr string `help:"Listen address, overrides the configured one." placeholder:":8080"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	cfg, err := ctx.setup()
	if err != nil {
		return err
	}
	defer db.Close()

	// 确保超级用户存在
	if err := db.EnsureUser(cfg.SuperUserEmail, cfg.SuperUserPassword); err != nil {
		return fmt.Errorf("ensure super user: %w", err)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	addr := cfg.ListenAddr
	if c.Addr != "" {
		addr = c.Addr
	}

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath, cfg.PageSize)
	r := router.SetupRouter(api, cfg)

	logger.Info("server listening", "addr", addr, "database", cfg.DatabasePath)
	return r.Run(addr)
}
