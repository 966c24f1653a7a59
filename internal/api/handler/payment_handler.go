package handler

import (
	"io"
	"net/http"

	"novamall/internal/service"
	"novamall/internal/types"
	"novamall/pkg/logger"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *logger.Logger
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(paymentService *service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// CreateIntent 为订单创建支付意向，游客凭下单会话发起支付
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	buyer, _ := resolveBuyer(c)
	var req types.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, intent, err := h.paymentService.CreateIntent(c.Request.Context(), buyer, req.OrderNo, req.Gateway)
	if err != nil {
		h.logger.Warn("创建支付意向失败", "error", err, "order_no", req.OrderNo, "gateway", req.Gateway)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": gin.H{
			"payment_no":         payment.PaymentNo,
			"gateway":            payment.Gateway,
			"amount":             payment.Amount,
			"currency":           payment.Currency,
			"gateway_payment_id": intent.GatewayPaymentID,
			"client_secret":      intent.ClientSecret,
			"redirect_url":       intent.RedirectURL,
		},
	})
}

// Confirm 主动向网关确认支付结果
func (h *PaymentHandler) Confirm(c *gin.Context) {
	buyer, _ := resolveBuyer(c)
	var req types.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.paymentService.Confirm(c.Request.Context(), buyer, req.PaymentNo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": payment})
}

// ListForOrder 获取订单的支付记录
func (h *PaymentHandler) ListForOrder(c *gin.Context) {
	user, _ := currentUser(c)

	payments, err := h.paymentService.ListForOrder(c.Request.Context(), user.ID, c.Param("order_no"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success", "data": gin.H{"payments": payments}})
}

// Webhook 处理网关异步通知
// 网关按各自约定重试，除签名失败外的处理错误返回500促使重发
func (h *PaymentHandler) Webhook(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("读取Webhook请求体失败", "error", err, "provider", provider)
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "invalid body"})
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), provider, body, c.Request.Header); err != nil {
		h.logger.Warn("处理Webhook失败", "error", err, "provider", provider)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "msg": "success"})
}
