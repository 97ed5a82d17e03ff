package api

import (
	"net/http"

	"github.com/Domenick1991/airbooking-core/internal/service/payment"
	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Paystack-Signature"

type PaymentHandler struct {
	service payment.ReconcilerUseCase
}

func NewPaymentHandler(service payment.ReconcilerUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Register mounts the gateway-facing routes on public. They authenticate by
// signature or by re-verifying with the gateway.
func (h *PaymentHandler) Register(public, protected *gin.RouterGroup) {
	public.POST("/payments/webhook", h.webhook)
	public.GET("/payments/callback", h.callback)
	protected.POST("/payments/:ref/verify", h.verify)
}

func (h *PaymentHandler) webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "unreadable body")
		return
	}
	out, err := h.service.HandleWebhook(c.Request.Context(), body, c.GetHeader(signatureHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) callback(c *gin.Context) {
	ref := c.Query("reference")
	if ref == "" {
		ref = c.Query("trxref")
	}
	if ref == "" {
		badRequest(c, "missing reference")
		return
	}
	h.verifyRef(c, ref)
}

func (h *PaymentHandler) verify(c *gin.Context) {
	h.verifyRef(c, c.Param("ref"))
}

func (h *PaymentHandler) verifyRef(c *gin.Context, ref string) {
	out, err := h.service.Verify(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
