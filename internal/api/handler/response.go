package handler

import (
	"errors"
	"fmt"
	"net/http"

	"novamall/internal/constants"
	"novamall/internal/gateway"
	"novamall/internal/model"
	"novamall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// currentUser 从上下文取出认证用户
func currentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get("user")
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// resolveBuyer 解析当前买家身份：已登录用户按用户ID，游客按会话ID
// 游客首次访问时生成会话ID并通过响应头返回
func resolveBuyer(c *gin.Context) (service.CartOwner, *model.User) {
	if user, ok := currentUser(c); ok {
		return service.CartOwner{UserID: user.ID}, user
	}
	session := c.GetHeader("X-Session-ID")
	if session == "" {
		session = uuid.NewString()
	}
	c.Header("X-Session-ID", session)
	return service.CartOwner{Session: session}, nil
}

// statusOf 业务错误到HTTP状态码的映射
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrAddressNotFound),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderAlreadyPaid),
		errors.Is(err, service.ErrCouponExhausted):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAddressRequired),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, service.ErrCouponInactive),
		errors.Is(err, service.ErrCouponNotStarted),
		errors.Is(err, service.ErrCouponExpired),
		errors.Is(err, service.ErrCouponMinNotMet),
		errors.Is(err, service.ErrUnsupportedGateway):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrSignatureMismatch):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一业务错误响应，内部错误不向外暴露细节
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = constants.ErrInternalServer
	}
	c.JSON(status, gin.H{"code": status, "msg": msg})
}

// respondBindError 请求参数校验失败响应，逐字段给出错误原因
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldErrorMessage(fe)
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"code": 422,
			"msg":  constants.ErrInvalidParams,
			"data": gin.H{"fields": fields},
		})
		return
	}

	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"code": 422,
		"msg":  constants.ErrInvalidParams,
		"data": gin.H{"detail": err.Error()},
	})
}

// fieldErrorMessage 将校验标签翻译为可读的错误说明
func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必填项"
	case "email":
		return "邮箱格式不正确"
	case "min":
		return fmt.Sprintf("不能小于%s", fe.Param())
	case "max":
		return fmt.Sprintf("不能大于%s", fe.Param())
	case "oneof":
		return fmt.Sprintf("取值必须是 %s 之一", fe.Param())
	default:
		return fmt.Sprintf("未通过%s校验", fe.Tag())
	}
}
