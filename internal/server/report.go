package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vtk-it/declaro/internal/bill/query"
	"github.com/vtk-it/declaro/internal/report"
	"go.uber.org/zap"
)

// DownloadReport composes the print-ready declaration PDF for one bill and
// streams it as an attachment.
func (s *Server) DownloadReport(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bill, err := s.billSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rotate, _ := strconv.ParseBool(c.DefaultQuery("rotate", "false"))

	pdf, ok := s.reports.Get(bill.ID.String(), rotate)
	if !ok {
		data, err := s.receipts.Get(bill.Image)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		asset, err := report.DetectAsset(bill.ImageExt(), data)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		pdf, err = s.compositor.Compose(c.Request.Context(), bill, asset, rotate)
		if err != nil {
			s.log.Error("report composition failed",
				zap.String("bill_id", bill.ID.String()), zap.Error(err))
			AbortWithError(c, err)
			return
		}
		s.reports.Set(bill.ID.String(), rotate, pdf)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(bill)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// DownloadReceipt streams the raw stored receipt asset.
func (s *Server) DownloadReceipt(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	bill, err := s.billSvc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data, err := s.receipts.Get(bill.Image)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, receiptContentType(bill.ImageExt()), data)
}

// ExportOverview renders the bookkeeping overview of every visible bill.
func (s *Server) ExportOverview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.billSvc.ListScoped(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The export honors the active filters but is never paginated.
	filtered := query.Apply(resp.Bills, billFilterEngine(c).Spec())

	pdf, err := s.exporter.Export(c.Request.Context(), filtered)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("declarations_%s.pdf", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func receiptContentType(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
