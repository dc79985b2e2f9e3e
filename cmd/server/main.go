package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/user/moviesdb/internal/config"
	"github.com/user/moviesdb/internal/handler"
	"github.com/user/moviesdb/internal/repository"
	"github.com/user/moviesdb/internal/router"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置，缺少密钥时拒绝启动
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置无效: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化数据库
	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)
	defer repos.Close()

	// 初始化缓存
	store, err := utils.NewStore(cfg.CacheMaxEntries)
	if err != nil {
		logger.Fatal("缓存初始化失败", zap.Error(err))
	}
	cache := utils.NewResponseCache(store)

	// 初始化 Handler 并注册路由
	h := handler.NewHandler(repos, cfg, cache, logger)
	r := router.New(h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   cfg.TMDBTimeout*2 + 10*time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logger.Info("服务器启动", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("服务器启动失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器强制关闭", zap.Error(err))
	}

	logger.Info("服务器已退出")
}
