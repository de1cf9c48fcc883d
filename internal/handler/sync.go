package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crmsync/internal/repository"
	syncengine "crmsync/internal/sync"
)

type SyncHandler struct {
	Service *syncengine.Service
	Store   repository.Store
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("/run", h.run)
	group.GET("/status", h.status)
}

// run triggers a full sync pass; ?account=<key> restricts it to one account.
func (h *SyncHandler) run(c *gin.Context) {
	account := c.Query("account")
	summary, err := h.Service.RunOnce(c.Request.Context(), account)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("manual sync failed", zap.String("account", account), zap.Error(err))
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, summary)
}

func (h *SyncHandler) status(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	reports, err := h.Store.ListReports(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, reports)
}
