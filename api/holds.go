package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/service/hold"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HoldHandler struct {
	service hold.ManagerUseCase
}

type createHoldRequest struct {
	FlightID   int64            `json:"flight_id" binding:"required"`
	Class      domain.SeatClass `json:"class" binding:"required"`
	Quantity   int              `json:"quantity" binding:"required,min=1"`
	TTLSeconds int              `json:"ttl_seconds" binding:"omitempty,min=1"`
}

func NewHoldHandler(service hold.ManagerUseCase) *HoldHandler {
	return &HoldHandler{service: service}
}

func (h *HoldHandler) Register(router *gin.RouterGroup) {
	router.POST("/holds", h.create)
	router.GET("/holds/:id", h.get)
	router.DELETE("/holds/:id", h.release)
}

func (h *HoldHandler) create(c *gin.Context) {
	var req createHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	held, err := h.service.CreateHold(c.Request.Context(), hold.CreateHoldInput{
		FlightID: req.FlightID,
		Class:    req.Class,
		Quantity: req.Quantity,
		Owner:    userID(c),
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, held)
}

func (h *HoldHandler) get(c *gin.Context) {
	held, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, held)
}

func (h *HoldHandler) release(c *gin.Context) {
	held, ok := h.owned(c)
	if !ok {
		return
	}
	released, err := h.service.Release(c.Request.Context(), held.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, released)
}

// owned loads the hold named in the path. Holds of other users look missing.
func (h *HoldHandler) owned(c *gin.Context) (*domain.Hold, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return nil, false
	}
	held, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if held.Owner != userID(c) {
		writeError(c, domain.ErrHoldNotFound)
		return nil, false
	}
	return held, true
}
