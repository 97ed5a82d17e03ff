package api

import (
	"net/http"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/service/booking"
	"github.com/Domenick1991/airbooking-core/internal/service/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	service  booking.BookingUseCase
	payments payment.ReconcilerUseCase
}

type createBookingRequest struct {
	HoldID       uuid.UUID          `json:"hold_id" binding:"required"`
	ContactEmail string             `json:"contact_email" binding:"required,email"`
	Passengers   []domain.Passenger `json:"passengers" binding:"required,min=1"`
	Discount     int64              `json:"discount" binding:"omitempty,min=0"`
}

type confirmBookingRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type initiatePaymentRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

func NewBookingHandler(service booking.BookingUseCase, payments payment.ReconcilerUseCase) *BookingHandler {
	return &BookingHandler{service: service, payments: payments}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.GET("/bookings/ref/:reference", h.getByReference)
	router.POST("/bookings/:id/confirm", h.confirm)
	router.POST("/bookings/:id/cancel", h.cancel)
	router.POST("/bookings/:id/payments", h.initiatePayment)
	router.GET("/bookings/:id/payments", h.listPayments)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		HoldID:       req.HoldID,
		UserID:       userID(c),
		ContactEmail: req.ContactEmail,
		Passengers:   req.Passengers,
		Discount:     req.Discount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) getByReference(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	if b.UserID != userID(c) {
		writeError(c, domain.ErrBookingNotFound)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	var req confirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, ok := h.owned(c)
	if !ok {
		return
	}

	confirmed, err := h.service.ConfirmBooking(c.Request.Context(), b.ID, req.PaymentRef)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmed)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	// The body is optional.
	_ = c.ShouldBindJSON(&req)
	b, ok := h.owned(c)
	if !ok {
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), b.ID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cancelled)
}

func (h *BookingHandler) initiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	b, ok := h.owned(c)
	if !ok {
		return
	}

	email := req.Email
	if email == "" {
		email = b.ContactEmail
	}
	attempt, err := h.payments.Initiate(c.Request.Context(), b.ID, email)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

func (h *BookingHandler) listPayments(c *gin.Context) {
	b, ok := h.owned(c)
	if !ok {
		return
	}
	attempts, err := h.payments.ListByBooking(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// owned loads the booking named in the path. Bookings of other users look missing.
func (h *BookingHandler) owned(c *gin.Context) (*domain.Booking, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return nil, false
	}
	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if b.UserID != userID(c) {
		writeError(c, domain.ErrBookingNotFound)
		return nil, false
	}
	return b, true
}
