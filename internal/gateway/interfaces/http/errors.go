// Package http 暴露撮合网关的 HTTP 接口。
// 调用方身份由上游网关解析后经 X-Party-ID / X-Party-Role 头传入。
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	auctiondomain "github.com/wyfcoding/localmarket/internal/auction/domain"
	"github.com/wyfcoding/localmarket/internal/gateway/application"
	gatewaydomain "github.com/wyfcoding/localmarket/internal/gateway/domain"
	groupbuydomain "github.com/wyfcoding/localmarket/internal/groupbuy/domain"
	orderdomain "github.com/wyfcoding/localmarket/internal/order/domain"
	reputationdomain "github.com/wyfcoding/localmarket/internal/reputation/domain"
)

var statusByError = []struct {
	target error
	status int
}{
	{orderdomain.ErrNotFound, http.StatusNotFound},
	{auctiondomain.ErrNotFound, http.StatusNotFound},
	{groupbuydomain.ErrNotFound, http.StatusNotFound},
	{reputationdomain.ErrNotFound, http.StatusNotFound},
	{gatewaydomain.ErrNotFound, http.StatusNotFound},

	{orderdomain.ErrNotAuthorized, http.StatusForbidden},
	{auctiondomain.ErrNotAuthorized, http.StatusForbidden},
	{groupbuydomain.ErrNotAuthorized, http.StatusForbidden},
	{gatewaydomain.ErrNotAuthorized, http.StatusForbidden},

	{orderdomain.ErrConflict, http.StatusConflict},
	{auctiondomain.ErrConflict, http.StatusConflict},
	{groupbuydomain.ErrConflict, http.StatusConflict},
	{reputationdomain.ErrConflict, http.StatusConflict},
	{gatewaydomain.ErrConflict, http.StatusConflict},

	{orderdomain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{orderdomain.ErrDuplicateParticipant, http.StatusUnprocessableEntity},
	{orderdomain.ErrBiddingClosed, http.StatusUnprocessableEntity},
	{orderdomain.ErrDeadlinePassed, http.StatusUnprocessableEntity},
	{orderdomain.ErrGroupFull, http.StatusUnprocessableEntity},
	{auctiondomain.ErrAuctionEnded, http.StatusUnprocessableEntity},
	{auctiondomain.ErrBidTooLow, http.StatusUnprocessableEntity},
	{auctiondomain.ErrInvalidState, http.StatusUnprocessableEntity},
	{groupbuydomain.ErrGroupBuyClosed, http.StatusUnprocessableEntity},
	{groupbuydomain.ErrDeadlinePassed, http.StatusUnprocessableEntity},
	{groupbuydomain.ErrPaymentAlreadyConfirmed, http.StatusUnprocessableEntity},
	{groupbuydomain.ErrTargetNotMet, http.StatusUnprocessableEntity},
	{groupbuydomain.ErrInvalidState, http.StatusUnprocessableEntity},

	{orderdomain.ErrValidation, http.StatusBadRequest},
	{auctiondomain.ErrValidation, http.StatusBadRequest},
	{groupbuydomain.ErrValidation, http.StatusBadRequest},
	{reputationdomain.ErrValidation, http.StatusBadRequest},
	{gatewaydomain.ErrValidation, http.StatusBadRequest},
}

// respondError 将领域错误翻译为传输层状态码。
func respondError(c *gin.Context, err error) {
	for _, m := range statusByError {
		if errors.Is(err, m.target) {
			response.ErrorWithStatus(c, m.status, err.Error(), "")
			return
		}
	}
	response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
}

func actorFrom(c *gin.Context) application.ActorContext {
	return application.ActorContext{
		PartyID: c.GetHeader("X-Party-ID"),
		Role:    application.Role(c.GetHeader("X-Party-Role")),
	}
}
