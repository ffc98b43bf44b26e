package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/worklog/internal/config"
	"github.com/worklog/internal/db"
	"github.com/worklog/internal/handler"
	"github.com/worklog/internal/router"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logrus.Fatalf("failed to initialize database: %v", err)
	}

	// 配置了管理账号时创建并开启登录保护
	if err := db.EnsureUser(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to ensure admin user: %v", err)
	}
	requireAuth := cfg.AdminUsername != "" && cfg.AdminPassword != ""

	api := handler.NewAPI(db.DB)
	r := router.SetupRouter(api, cfg.SessionSecret, requireAuth)

	logrus.WithField("addr", cfg.ListenAddr).Info("worklog server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		logrus.Fatalf("failed to run server: %v", err)
	}
}
