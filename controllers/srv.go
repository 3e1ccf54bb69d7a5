// controllers/srv.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"workshop_tool_inventory/app"
	"workshop_tool_inventory/bridge"
	"workshop_tool_inventory/config"
	"workshop_tool_inventory/db"
	"workshop_tool_inventory/importer"

	"github.com/gin-gonic/gin"
)

type Srv struct {
	Repo     *db.Repo
	Bridge   *bridge.Bridge
	Importer *importer.Importer
	Cfg      config.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:     a.Repo,
		Bridge:   a.Bridge,
		Importer: a.Importer,
		Cfg:      a.Config,
	}
}

// --- helpers ---

// statusFor 把领域错误映射成 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, db.ErrValidation), errors.Is(err, importer.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrInsufficientStock), errors.Is(err, db.ErrNoActiveLoan):
		return http.StatusConflict
	case errors.Is(err, bridge.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, bridge.ErrUnsafeStatement), errors.Is(err, bridge.ErrQueryExecution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bridge.ErrTranslation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(code, app.H{"error": err.Error()})
}

// idParam 解析路径里的数字 id，失败时已经写好 400
func idParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(n), true
}
