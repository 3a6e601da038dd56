package stay

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casacaminho/shelter-api/internal/handler"
	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/service/placement"
	"github.com/casacaminho/shelter-api/internal/service/stay"
)

const msgSentToWaitingList = "no free room; patient sent to the waiting list"

type Handler struct {
	service   stay.StayService
	placement placement.PlacementService
}

func NewHandler(service stay.StayService, placement placement.PlacementService) *Handler {
	return &Handler{
		service:   service,
		placement: placement,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	stays := r.Group("/stays")
	{
		stays.POST("", h.RequestPlacement)
		stays.GET("", h.ListStays)
		stays.GET("/:id", h.GetStay)
		stays.DELETE("/:id", h.EndStay)
	}
}

// RequestPlacement answers 201 when a room was allocated and 202 when the
// patient was queued instead.
func (h *Handler) RequestPlacement(c *gin.Context) {
	var req model.PlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	res, err := h.placement.RequestPlacement(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if !res.Allocated {
		c.JSON(http.StatusAccepted, handler.NewMessageResponse(msgSentToWaitingList, res))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(res))
}

func (h *Handler) ListStays(c *gin.Context) {
	filters := &model.StayFilters{Status: model.StayStatus(c.Query("status"))}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient_id"))
			return
		}
		filters.PatientID = &id
	}
	stays, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stays))
}

func (h *Handler) GetStay(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	s, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

// EndStay closes the stay and frees its room. Ending an ended stay is a no-op.
func (h *Handler) EndStay(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	s, err := h.placement.EndStay(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}
