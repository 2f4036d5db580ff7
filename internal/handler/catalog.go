package handler

import (
	"net/http"

	"github.com/lunban/lunban/internal/catalog"
	"github.com/lunban/lunban/pkg/policy"
)

// GetCatalog 输出全部约束族的机器可读目录
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalog.Response{Catalog: catalog.GetCatalog()})
}

// ListPoliciesResponse 策略预设列表响应
type ListPoliciesResponse struct {
	Policies []*policy.Preset `json:"policies"`
}

// ListPolicies 列出全部策略预设，按名称字典序
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	names := h.policies.Names()
	presets := make([]*policy.Preset, 0, len(names))
	for _, name := range names {
		if p, ok := h.policies.Get(name); ok {
			presets = append(presets, p)
		}
	}
	respondJSON(w, http.StatusOK, ListPoliciesResponse{Policies: presets})
}
