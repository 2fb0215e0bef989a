package handler

import (
	"fmt"
	"net/http"
	"testing"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderEngine(publisher OrderPublisher) *gin.Engine {
	h := NewOrderHandler(publisher)
	engine := newTestEngine()
	engine.POST("/orders/:id/publish", h.Publish)
	return engine
}

func TestOrderHandler_Publish(t *testing.T) {
	publisher := new(MockOrderPublisher)
	orderID := uuid.New()
	skipped := uuid.New()
	publisher.On("Publish", mock.Anything, orderID).Return(&app.PublishResult{
		Success:       true,
		RemoteOrderID: "901",
		SkippedItems:  []integration.SkippedItem{{ProductID: skipped, Reason: "product is not linked to a remote product"}},
	}, nil)

	var result app.PublishResult
	w, resp := performRequest(t, newOrderEngine(publisher), http.MethodPost, "/orders/"+orderID.String()+"/publish", "", &result)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "901", result.RemoteOrderID)
	assert.False(t, result.AlreadyPublished)
	require.Len(t, result.SkippedItems, 1)
	assert.Equal(t, skipped, result.SkippedItems[0].ProductID)
}

func TestOrderHandler_Publish_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown order", fmt.Errorf("%w: %w", integration.ErrPublish, integration.ErrOrderNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"publish running", fmt.Errorf("%w: %w", integration.ErrPublish, integration.ErrPublishInProgress), http.StatusConflict, dto.ErrCodePublishInProgress},
		{"shopify store", fmt.Errorf("%w: orders can only be published to woocommerce stores", integration.ErrConfiguration), http.StatusUnprocessableEntity, dto.ErrCodeConfiguration},
		{"platform rejected", fmt.Errorf("%w: %w", integration.ErrPublish, integration.ErrPlatformRequestFailed), http.StatusBadGateway, dto.ErrCodeUpstreamRequest},
		{"nothing to publish", fmt.Errorf("%w: no item linked to a remote product", integration.ErrPublish), http.StatusBadGateway, dto.ErrCodePublish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := new(MockOrderPublisher)
			orderID := uuid.New()
			publisher.On("Publish", mock.Anything, orderID).Return(nil, tt.err)

			w, resp := performRequest(t, newOrderEngine(publisher), http.MethodPost, "/orders/"+orderID.String()+"/publish", "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-test", resp.Error.RequestID)
		})
	}
}
