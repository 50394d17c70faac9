package handler

import (
	"net/http"

	"kanvaro_backend/internal/search/service"
	"kanvaro_backend/internal/search/transport"
	"kanvaro_backend/platform/apperr"
	"kanvaro_backend/platform/httpkit"
	"kanvaro_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.GlobalSearch)
	rg.GET("/recent", h.ListRecent)
	rg.DELETE("/recent", h.ClearRecent)
}

// RegisterAdminRoutes mounts search analytics under an admin-only group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/misses", h.ListMisses)
}

func (h *Handler) GlobalSearch(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Search(c.Request.Context(), identity.UserID(), req)
	if err != nil {
		h.logFailure(c, err)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ListRecent(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.RecentSearches(c.Request.Context(), identity.UserID())
	if err != nil {
		h.logFailure(c, err)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func (h *Handler) ClearRecent(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.ClearRecentSearches(c.Request.Context(), identity.UserID())
	if err != nil {
		h.logFailure(c, err)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.NoContent(c)
}

func (h *Handler) ListMisses(c *gin.Context) {
	var req transport.SearchMissesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ListSearchMisses(c.Request.Context(), req)
	if err != nil {
		h.logFailure(c, err)
	}
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// logFailure attaches internal errors to the gin context so RequestLogger
// reports the cause. The client only sees the generic message.
func (h *Handler) logFailure(c *gin.Context, err error) {
	if apperr.Is(err, apperr.KindInternal) {
		_ = c.Error(err)
	}
}
