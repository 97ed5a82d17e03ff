package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

type scheduleFlightRequest struct {
	FlightNumber  string                   `json:"flight_number" binding:"required"`
	FromAirport   string                   `json:"from_airport" binding:"required,len=3"`
	ToAirport     string                   `json:"to_airport" binding:"required,len=3"`
	DepartureTime time.Time                `json:"departure_time" binding:"required"`
	ArrivalTime   time.Time                `json:"arrival_time" binding:"required"`
	Currency      string                   `json:"currency" binding:"required,len=3"`
	Classes       []flights.ClassInventory `json:"classes" binding:"required,min=1"`
}

type scheduleFlightResponse struct {
	Flight    *domain.Flight           `json:"flight"`
	Inventory []domain.FlightInventory `json:"inventory"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts read-only routes on public and mutating routes on protected.
func (h *FlightHandler) Register(public, protected *gin.RouterGroup) {
	public.GET("/flights", h.list)
	public.GET("/flights/:id", h.get)
	public.GET("/flights/:id/inventory", h.inventory)
	protected.POST("/flights", h.schedule)
	protected.DELETE("/flights/:id", h.archive)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) inventory(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	inv, err := h.service.Availability(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	type classAvailability struct {
		domain.FlightInventory
		Available int `json:"available"`
	}
	out := make([]classAvailability, 0, len(inv))
	for _, i := range inv {
		out = append(out, classAvailability{FlightInventory: i, Available: i.Available()})
	}
	c.JSON(http.StatusOK, out)
}

func (h *FlightHandler) schedule(c *gin.Context) {
	var req scheduleFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	flight, inv, err := h.service.Schedule(c.Request.Context(), flights.ScheduleInput{
		Flight: domain.Flight{
			FlightNumber:  req.FlightNumber,
			FromAirport:   req.FromAirport,
			ToAirport:     req.ToAirport,
			DepartureTime: req.DepartureTime,
			ArrivalTime:   req.ArrivalTime,
			Currency:      req.Currency,
		},
		Classes: req.Classes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheduleFlightResponse{Flight: flight, Inventory: inv})
}

func (h *FlightHandler) archive(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.Archive(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func flightID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
