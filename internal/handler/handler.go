// Package handler 提供HTTP请求处理器
package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zhtranslations "github.com/go-playground/validator/v10/translations/zh"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/policy"
	"github.com/lunban/lunban/pkg/relief"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/decode"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/swap"
)

// Handler HTTP处理器，持有路由与各端点的全部依赖
type Handler struct {
	config       *config.Config
	engine       *scheduler.Engine
	solverName   string
	policies     *policy.Manager
	runs         repository.RunRepositoryInterface
	competencies repository.CompetencyRepositoryInterface
	relief       *relief.Engine
	swaps        *swap.Recommender
	swapEval     *swap.Evaluator

	validate   *validator.Validate
	translator ut.Translator

	Mux *chi.Mux
}

// NewHandler 创建HTTP处理器。解码判定点取配置值，
// 请求体校验错误经中文翻译器转成业务错误报出。
func NewHandler(
	cfg *config.Config,
	sv solver.Solver,
	runs repository.RunRepositoryInterface,
	competencies repository.CompetencyRepositoryInterface,
) (*Handler, error) {
	validate := validator.New()
	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale)
	trans, ok := uni.GetTranslator("zh")
	if !ok {
		return nil, fmt.Errorf("找不到中文翻译器")
	}
	if err := zhtranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("注册校验翻译失败: %w", err)
	}

	eng := scheduler.NewEngine(sv)
	decoder := decode.NewDecoder()
	decoder.SetThreshold(milp.NewThreshold(cfg.Scheduler.DecodeThreshold))
	eng.SetDecoder(decoder)

	return &Handler{
		config:       cfg,
		engine:       eng,
		solverName:   sv.Name(),
		policies:     policy.NewManager(),
		runs:         runs,
		competencies: competencies,
		relief:       relief.NewEngine(),
		swaps:        swap.NewRecommender(),
		swapEval:     swap.NewEvaluator(),
		validate:     validate,
		translator:   trans,
		Mux:          chi.NewRouter(),
	}, nil
}

// RegisterRoutes 注册全部业务路由，middlewares 依次作用于整棵路由树。
// 系统端点（/health、/version、/metrics）由 main 在路由注册后挂载。
func (h *Handler) RegisterRoutes(middlewares ...func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		h.Mux.Use(mw)
	}

	h.Mux.Route("/api/v1", func(r chi.Router) {
		r.Route("/roster", func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Post("/validate", h.ValidateRoster)
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", h.ListRuns)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetRun)
					r.Delete("/", h.DeleteRun)
					r.Get("/table", h.GetRunTable)
					r.Get("/audit", h.GetRunAudit)
					r.Get("/stats", h.GetRunStats)
					r.Get("/relief", h.GetRunRelief)
					r.Post("/swaps", h.EvaluateSwaps)
				})
			})
		})
		r.Get("/constraints/catalog", h.GetCatalog)
		r.Get("/policies", h.ListPolicies)
	})
}
