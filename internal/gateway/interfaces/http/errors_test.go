package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	auctiondomain "github.com/wyfcoding/localmarket/internal/auction/domain"
	gatewaydomain "github.com/wyfcoding/localmarket/internal/gateway/domain"
	groupbuydomain "github.com/wyfcoding/localmarket/internal/groupbuy/domain"
	orderdomain "github.com/wyfcoding/localmarket/internal/order/domain"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", orderdomain.ErrNotFound, http.StatusNotFound},
		{"not authorized", auctiondomain.ErrNotAuthorized, http.StatusForbidden},
		{"version conflict", orderdomain.ErrConflict, http.StatusConflict},
		{"duplicate request", gatewaydomain.ErrConflict, http.StatusConflict},
		{"duplicate participant", orderdomain.ErrDuplicateParticipant, http.StatusUnprocessableEntity},
		{"bid too low", auctiondomain.ErrBidTooLow, http.StatusUnprocessableEntity},
		{"payment confirmed", groupbuydomain.ErrPaymentAlreadyConfirmed, http.StatusUnprocessableEntity},
		{"validation", groupbuydomain.ErrValidation, http.StatusBadRequest},
		{"unmapped", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			// 领域错误总是带上下文包装后抛出
			respondError(c, fmt.Errorf("op failed: %w", tc.err))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
