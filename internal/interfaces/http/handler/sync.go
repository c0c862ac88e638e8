package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appsync "github.com/edusync/backend/internal/application/sync"
	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
	"github.com/edusync/backend/internal/interfaces/http/dto"
	"github.com/edusync/backend/internal/interfaces/http/middleware"
)

// SyncHandler exposes reconciliation runs and the audit read side
type SyncHandler struct {
	BaseHandler
	orchestrator *appsync.Orchestrator
	freshness    *appsync.FreshnessService
	audit        syncdomain.AuditRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *appsync.Orchestrator, freshness *appsync.FreshnessService, audit syncdomain.AuditRepository) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		freshness:    freshness,
		audit:        audit,
	}
}

// DateRangeRequest bounds a range sync
type DateRangeRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// AuditListRequest filters the audit trail listing
type AuditListRequest struct {
	dto.ListRequest
	Entity string `form:"entity"`
}

// SyncAll godoc
// @ID           runFullSync
// @Summary      Run a full sync
// @Description  Reconciles all entity types against the partner system in dependency order
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[syncdomain.Result]
// @Router       /sync [post]
func (h *SyncHandler) SyncAll(c *gin.Context) {
	result := h.orchestrator.SyncAll(c.Request.Context())
	h.Success(c, result)
}

// SyncEntity godoc
// @ID           runEntitySync
// @Summary      Sync one entity type
// @Description  Reconciles a single entity type (course, class, student or enrollment)
// @Tags         sync
// @Produce      json
// @Param        entity path string true "Entity type"
// @Success      200 {object} APIResponse[syncdomain.Result]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/{entity} [post]
func (h *SyncHandler) SyncEntity(c *gin.Context) {
	entity, err := syncdomain.ParseEntityType(c.Param("entity"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result := h.orchestrator.SyncEntity(c.Request.Context(), entity)
	h.Success(c, result)
}

// SyncEntityRange godoc
// @ID           runEntityRangeSync
// @Summary      Sync one entity type over a date range
// @Description  Reconciles partner records updated between from and to (RFC 3339)
// @Tags         sync
// @Produce      json
// @Param        entity path  string true "Entity type"
// @Param        from   query string true "Window start (RFC 3339)"
// @Param        to     query string true "Window end (RFC 3339)"
// @Success      200 {object} APIResponse[syncdomain.Result]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/{entity}/range [post]
func (h *SyncHandler) SyncEntityRange(c *gin.Context) {
	entity, err := syncdomain.ParseEntityType(c.Param("entity"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var req DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return
	}

	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		h.BadRequest(c, "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		h.BadRequest(c, "to must be an RFC 3339 timestamp")
		return
	}

	result, err := h.orchestrator.SyncByDateRange(c.Request.Context(), entity, from, to)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.Success(c, result)
}

// ListAudit godoc
// @ID           listSyncAudit
// @Summary      List sync audit entries
// @Description  Returns the append-only audit trail, newest first
// @Tags         sync
// @Produce      json
// @Param        page      query int    false "Page number"
// @Param        page_size query int    false "Page size"
// @Param        entity    query string false "Filter by entity type"
// @Success      200 {object} APIResponse[[]syncdomain.AuditEntry]
// @Router       /sync/audit [get]
func (h *SyncHandler) ListAudit(c *gin.Context) {
	req := AuditListRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid pagination parameters")
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if req.Entity != "" {
		if _, err := syncdomain.ParseEntityType(req.Entity); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		filter.Filters["entity"] = req.Entity
	}

	entries, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, entries, total, filter.Page, filter.PageSize)
}

// GetFreshness godoc
// @ID           getSyncFreshness
// @Summary      Get data freshness for an entity type
// @Description  Returns when the entity type last synced successfully; null when never
// @Tags         sync
// @Produce      json
// @Param        entity path string true "Entity type"
// @Success      200 {object} APIResponse[appsync.Freshness]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/freshness/{entity} [get]
func (h *SyncHandler) GetFreshness(c *gin.Context) {
	entity, err := syncdomain.ParseEntityType(c.Param("entity"))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	f, err := h.freshness.LastSuccessfulSync(c.Request.Context(), entity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, f)
}
