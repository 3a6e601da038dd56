package room

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casacaminho/shelter-api/internal/handler"
	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/internal/service/placement"
	"github.com/casacaminho/shelter-api/internal/service/room"
)

type Handler struct {
	service   room.RoomService
	placement placement.PlacementService
}

func NewHandler(service room.RoomService, placement placement.PlacementService) *Handler {
	return &Handler{
		service:   service,
		placement: placement,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	rooms := r.Group("/rooms")
	{
		rooms.POST("", h.CreateRoom)
		rooms.GET("", h.ListRooms)
		rooms.GET("/free", h.ListFreeRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.PUT("/:id", h.UpdateRoom)
		rooms.PUT("/:id/occupy", h.OccupyRoom)
		rooms.PUT("/:id/release", h.ReleaseRoom)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.DELETE("/rooms/:id", h.DeleteRoom)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req model.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	rm, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rm))
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.List(c.Request.Context(), &model.RoomFilters{
		Status: model.RoomStatus(c.Query("status")),
	})
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rooms))
}

func (h *Handler) ListFreeRooms(c *gin.Context) {
	rooms, err := h.service.ListFree(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rooms))
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	rm, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rm))
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	rm, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rm))
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("room deleted", nil))
}

// OccupyRoom houses a patient in this exact room; there is no fallback to another one.
func (h *Handler) OccupyRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	var req model.OccupyRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	res, err := h.placement.OccupyRoom(c.Request.Context(), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}

// ReleaseRoom frees the room and ends the stay running in it.
func (h *Handler) ReleaseRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}
	rm, err := h.placement.ReleaseRoom(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rm))
}
