// controllers/item_loan_controller.go
package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"workshop_tool_inventory/app"
	"workshop_tool_inventory/db"

	"github.com/gin-gonic/gin"
)

type ItemController struct{ *Srv }

func NewItemController(s *Srv) *ItemController { return &ItemController{Srv: s} }

// GET /api/items?q=drill
func (ic *ItemController) ListItems(c *gin.Context) {
	items, err := ic.Repo.SearchItems(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// 新增物品；stock 可以是数字或字符串，非数字按 0
func (ic *ItemController) CreateItem(c *gin.Context) {
	var in struct {
		CatalogID string `json:"catalogId"`
		Name      string `json:"name" binding:"required"`
		Brand     string `json:"brand"`
		Equipment string `json:"equipment"`
		Stock     any    `json:"stock"`
		Location  string `json:"location"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	it, err := ic.Repo.CreateItem(c.Request.Context(), db.ItemInput{
		CatalogID: in.CatalogID,
		Name:      in.Name,
		Brand:     in.Brand,
		Equipment: in.Equipment,
		Stock:     db.CoerceQuantity(in.Stock),
		Location:  in.Location,
		Notes:     in.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (ic *ItemController) Summary(c *gin.Context) {
	s, err := ic.Repo.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// PUT /api/items/:id/stock {"stock": 12}
func (ic *ItemController) AdjustStock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Stock *int `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	it, err := ic.Repo.AdjustStock(c.Request.Context(), id, *in.Stock)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

type checkoutReq struct {
	Employee       string     `json:"employee" binding:"required"`
	Quantity       any        `json:"quantity"`
	Location       string     `json:"location,omitempty"`
	OrderRef       string     `json:"orderRef,omitempty"`
	ExpectedReturn *time.Time `json:"expectedReturn,omitempty"`
}

// 借出
func (ic *ItemController) Checkout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}
	qty := 1
	if req.Quantity != nil {
		n, ok := db.ParseQuantity(req.Quantity)
		if !ok {
			fail(c, db.ValidationError("quantity must be a whole number"))
			return
		}
		qty = n
	}

	res, err := ic.Repo.Checkout(c.Request.Context(), db.CheckoutInput{
		ItemID:         id,
		EmployeeName:   req.Employee,
		Quantity:       qty,
		Location:       req.Location,
		OrderRef:       req.OrderRef,
		ExpectedReturn: req.ExpectedReturn,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, app.H{"message": res.Message(), "loan": res.Loan, "item": res.Item})
}

// 归还；body 可省略，省略时归还剩余全部
func (ic *ItemController) Checkin(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := ic.Repo.Checkin(c.Request.Context(), id, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"message":   res.Message(),
		"loan":      res.Loan,
		"item":      res.Item,
		"remaining": res.Remaining,
	})
}

func (ic *ItemController) ActiveLoans(c *gin.Context) {
	rows, err := ic.Repo.ListActiveLoans(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

func (ic *ItemController) OverdueLoans(c *gin.Context) {
	rows, err := ic.Repo.ListOverdueLoans(c.Request.Context(), time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}
