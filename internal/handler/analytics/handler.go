package analytics

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casacaminho/shelter-api/internal/handler"
	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/service/analytics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service analytics.AnalyticsService
}

func NewHandler(service analytics.AnalyticsService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/analytics")
	{
		group.GET("", h.Report)
		group.GET("/export", h.Export)
	}
}

func (h *Handler) Report(c *gin.Context) {
	rg, ok := parseRange(c)
	if !ok {
		return
	}
	report, err := h.service.Report(c.Request.Context(), rg)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(report))
}

// Export serves the report as an XLSX download.
func (h *Handler) Export(c *gin.Context) {
	rg, ok := parseRange(c)
	if !ok {
		return
	}
	data, err := h.service.Export(c.Request.Context(), rg)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	filename := fmt.Sprintf("analise_%s_%s.xlsx", rg.Start, rg.End)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// parseRange reads start/end, falling back to the inicio/fim names the admin
// frontend sends.
func parseRange(c *gin.Context) (model.AnalyticsRange, bool) {
	start := c.DefaultQuery("start", c.Query("inicio"))
	end := c.DefaultQuery("end", c.Query("fim"))
	rg, err := analytics.ParseRange(start, end)
	if err != nil {
		handler.RespondError(c, err)
		return rg, false
	}
	return rg, true
}
