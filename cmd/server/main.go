// 排班服务入口。加载配置、建库迁移、装配求解器与路由，
// 以优雅关闭方式托管 HTTP 服务。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/database"
	"github.com/lunban/lunban/internal/department"
	"github.com/lunban/lunban/internal/handler"
	"github.com/lunban/lunban/internal/metrics"
	"github.com/lunban/lunban/internal/middleware"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/internal/security"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/scheduler/optimizer"
	"github.com/lunban/lunban/pkg/scheduler/solver"
)

// 构建信息，通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// ======== 配置与日志 ========
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logFormat := "json"
	if cfg.IsDevelopment() {
		logFormat = "console"
	}
	logger.Init(logger.Config{
		Level:      cfg.App.LogLevel,
		Format:     logFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	})

	fmt.Printf("排班服务 %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)

	// ======== 数据库 ========
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("数据库初始化失败")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		logger.Fatal().Err(err).Msg("数据库迁移失败")
	}
	cancelMigrate()

	// ======== 科室与密钥 ========
	departments := department.NewManager()
	if err := departments.Register(department.CreateDefaultDepartment()); err != nil {
		logger.Fatal().Err(err).Msg("注册默认科室失败")
	}

	keys := security.NewAPIKeyManager()
	keys.RegisterStatic("default", cfg.API.Keys)
	limiter := security.NewRateLimiter(cfg.API.RateLimit, cfg.API.RateWindow)

	// ======== 求解器 ========
	sv := buildSolver(cfg)
	logger.Info().
		Str("solver", sv.Name()).
		Dur("timeout", cfg.Scheduler.Timeout).
		Msg("求解器就绪")

	// ======== 路由 ========
	h, err := handler.NewHandler(cfg, sv,
		repository.NewRunRepository(db),
		repository.NewCompetencyRepository(db))
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化处理器失败")
	}

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging,
		middleware.SecurityHeaders,
		middleware.Recovery,
	}
	if cfg.API.CORSEnabled {
		chain = append(chain, middleware.CORS(cfg.API.CORSOrigins))
	}
	if cfg.API.AuthEnabled {
		chain = append(chain, middleware.Auth(&middleware.AuthConfig{
			KeyManager:      keys,
			Departments:     departments,
			RateLimiter:     limiter,
			SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
			EnableRateLimit: true,
		}))
	}
	h.RegisterRoutes(chain...)

	// ======== 系统端点 ========
	h.Mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := map[string]string{"status": "ok", "service": cfg.App.Name}
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
		json.NewEncoder(w).Encode(status)
	})

	h.Mux.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	if cfg.Metrics.Enabled {
		h.Mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ======== HTTP服务 ========
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: h.Mux,
		// 求解请求会长时间占用连接，写超时取 API 超时配置
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.API.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("env", cfg.App.Env).
			Msg("HTTP服务启动")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP服务异常退出")
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("收到退出信号，开始优雅关闭")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP服务关闭失败")
	}

	logger.Info().Msg("服务已退出")
}

// buildSolver 按配置选择求解器实现
func buildSolver(cfg *config.Config) solver.Solver {
	switch cfg.Scheduler.Solver {
	case "glpsol":
		s := solver.NewGlpsolSolver()
		s.SetPath(cfg.Scheduler.GlpsolPath)
		s.SetTimeLimit(cfg.Scheduler.Timeout)
		return s
	case "anneal":
		s := optimizer.NewAnnealSolver()
		s.SetMaxTime(cfg.Scheduler.Timeout)
		return s
	default:
		s := solver.NewBranchBoundSolver()
		s.SetMaxNodes(cfg.Scheduler.MaxNodes)
		return s
	}
}
