package controllers

import (
	"net/http"
	"strconv"

	"workshop_tool_inventory/app"

	"github.com/gin-gonic/gin"
)

type AuditController struct{ *Srv }

func NewAuditController(s *Srv) *AuditController { return &AuditController{Srv: s} }

// GET /api/audit?action=stock_adjust&limit=50
func (ac *AuditController) ListAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := ac.Repo.ListAudit(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": logs})
}
