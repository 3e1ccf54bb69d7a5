package routes

import (
	"net/http"

	"workshop_tool_inventory/app"
	"workshop_tool_inventory/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	itemCtl := controllers.NewItemController(s)
	empCtl := controllers.NewEmployeeController(s)
	auditCtl := controllers.NewAuditController(s)
	importCtl := controllers.NewImportController(s)
	askCtl := controllers.NewAskController(s)

	throttleMW := app.ThrottleAsk(a.RDB, a.Config.AskRatePerMinute)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ------------------------------
	// 物品与借还
	// ------------------------------
	items := api.Group("/items")
	{
		items.GET("", itemCtl.ListItems) // ?q=
		items.POST("", itemCtl.CreateItem)
		items.GET("/summary", itemCtl.Summary)
		items.PUT("/:id/stock", itemCtl.AdjustStock)
		items.POST("/:id/checkout", itemCtl.Checkout)
		items.POST("/:id/checkin", itemCtl.Checkin)
	}

	loans := api.Group("/loans")
	{
		loans.GET("/active", itemCtl.ActiveLoans)
		loans.GET("/overdue", itemCtl.OverdueLoans)
	}

	api.GET("/employees", empCtl.ListEmployees)
	api.GET("/audit", auditCtl.ListAudit) // ?action=&limit=
	api.POST("/imports", importCtl.Import)

	// ------------------------------
	// 自然语言查询
	// ------------------------------
	ask := api.Group("/ask")
	{
		ask.GET("/status", askCtl.Status)
		ask.POST("", throttleMW, askCtl.Ask)
		ask.POST("/sql", throttleMW, askCtl.Translate)
	}
}
