package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/lunban/lunban/pkg/errors"
)

// readJSON 解析请求体
func (h *Handler) readJSON(r *http.Request, dst interface{}) *apperrors.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// checkStruct 按结构体标签校验请求，首条错误译成中文报出
func (h *Handler) checkStruct(req interface{}) *apperrors.AppError {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperrors.New(apperrors.CodeInvalidInput, ve[0].Translate(h.translator))
	}
	return apperrors.Wrap(err, apperrors.CodeInvalidInput, "请求校验失败")
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}

// respondAppError 任意错误按业务错误报出，未分类错误归入内部错误
func respondAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		respondError(w, appErr)
		return
	}
	var ve *apperrors.ValidationErrors
	if errors.As(err, &ve) {
		respondError(w, ve.ToAppError())
		return
	}
	respondError(w, apperrors.Wrap(err, apperrors.CodeInternal, "内部错误"))
}
