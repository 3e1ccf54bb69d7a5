package controllers

import (
	"net/http"

	"workshop_tool_inventory/app"

	"github.com/gin-gonic/gin"
)

type AskController struct{ *Srv }

func NewAskController(s *Srv) *AskController { return &AskController{Srv: s} }

type askReq struct {
	Text string `json:"text" binding:"required"`
}

func (ac *AskController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, app.H{"connected": ac.Bridge.Connected(), "url": ac.Cfg.LLM.URL})
}

// POST /api/ask：分类 + 只读查询，借还类请求只返回操作提示
func (ac *AskController) Ask(c *gin.Context) {
	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	reply, err := ac.Bridge.Ask(c.Request.Context(), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// POST /api/ask/sql：只翻译，不执行
func (ac *AskController) Translate(c *gin.Context) {
	var req askReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	stmt, err := ac.Bridge.Translate(c.Request.Context(), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"sql": stmt})
}
