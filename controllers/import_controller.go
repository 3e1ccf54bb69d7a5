package controllers

import (
	"io"
	"net/http"

	"workshop_tool_inventory/app"

	"github.com/gin-gonic/gin"
)

type ImportController struct{ *Srv }

func NewImportController(s *Srv) *ImportController { return &ImportController{Srv: s} }

const maxImportBytes = 10 << 20

// POST /api/imports：multipart 的 file 字段，或者直接把 CSV 放在 body 里
func (ic *ImportController) Import(c *gin.Context) {
	var (
		r      io.Reader
		source = "upload"
	)
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
			return
		}
		defer f.Close()
		r, source = f, fh.Filename
	} else {
		r = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	}

	res, err := ic.Importer.ImportReader(c.Request.Context(), source, r)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
