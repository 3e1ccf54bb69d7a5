package controllers

import (
	"net/http"

	"workshop_tool_inventory/app"

	"github.com/gin-gonic/gin"
)

type EmployeeController struct{ *Srv }

func NewEmployeeController(s *Srv) *EmployeeController { return &EmployeeController{Srv: s} }

// GET /api/employees
func (ec *EmployeeController) ListEmployees(c *gin.Context) {
	es, err := ec.Repo.ListEmployees(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": es})
}
