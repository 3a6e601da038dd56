package waitinglist

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/casacaminho/shelter-api/internal/handler"
	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/service/placement"
	"github.com/casacaminho/shelter-api/internal/service/waitinglist"
)

const msgNoFreeRoom = "no free room; entry kept on the waiting list"

type Handler struct {
	service   waitinglist.WaitingListService
	placement placement.PlacementService
}

func NewHandler(service waitinglist.WaitingListService, placement placement.PlacementService) *Handler {
	return &Handler{
		service:   service,
		placement: placement,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	list := r.Group("/waiting-list")
	{
		list.GET("", h.ListEntries)
		list.POST("", h.Enqueue)
		list.POST("/allocate-next", h.AllocateNext)
		list.PUT("/:id/approve", h.Approve)
		list.POST("/:id/allocate", h.Allocate)
		list.DELETE("/:id", h.DeleteEntry)
	}
}

// ListEntries hides approved entries unless ?all=true or an explicit ?status is given.
func (h *Handler) ListEntries(c *gin.Context) {
	all, _ := strconv.ParseBool(c.Query("all"))
	filters := &model.WaitingListFilters{
		Status:          model.WaitingListStatus(c.Query("status")),
		IncludeApproved: all,
	}
	entries, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) Enqueue(c *gin.Context) {
	var req model.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	entry, err := h.service.Enqueue(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.service.AdvanceStatus(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) DeleteEntry(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("waiting list entry deleted", nil))
}

func (h *Handler) Allocate(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	req, ok := bindAllocate(c)
	if !ok {
		return
	}
	res, err := h.placement.AllocateFromWaitingList(c.Request.Context(), id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	respondAllocation(c, res)
}

// AllocateNext allocates the oldest entry on the list.
func (h *Handler) AllocateNext(c *gin.Context) {
	req, ok := bindAllocate(c)
	if !ok {
		return
	}
	res, err := h.placement.AllocateNext(c.Request.Context(), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	respondAllocation(c, res)
}

// bindAllocate accepts an empty body; stay details are optional.
func bindAllocate(c *gin.Context) (*model.AllocateRequest, bool) {
	var req model.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handler.RespondBindError(c, err)
		return nil, false
	}
	return &req, true
}

func respondAllocation(c *gin.Context, res *model.PlacementResult) {
	if !res.Allocated {
		c.JSON(http.StatusOK, handler.NewMessageResponse(msgNoFreeRoom, res))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}
