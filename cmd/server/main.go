package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/4sizn/animal-zoom-sub000/internal/bootstrap"
)

func main() {
	// 初始化 App
	app, err := bootstrap.NewApp()
	if err != nil {
		logrus.Fatalf("Failed to initialize application: %v", err)
	}

	// 启动应用组件
	if err := app.Start(); err != nil {
		app.Log.Errorf("Failed to start application: %v", err)
		app.Shutdown()
		os.Exit(1)
	}

	// 设置优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.Log.Info("Shutdown signal received...")

	app.Shutdown()
}
