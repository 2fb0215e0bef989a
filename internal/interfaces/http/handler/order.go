package handler

import (
	"context"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderPublisher pushes local orders to their store
type OrderPublisher interface {
	Publish(ctx context.Context, orderID uuid.UUID) (*app.PublishResult, error)
}

// OrderHandler handles order publishing
type OrderHandler struct {
	BaseHandler
	publisher OrderPublisher
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(publisher OrderPublisher) *OrderHandler {
	return &OrderHandler{publisher: publisher}
}

// Publish godoc
// @ID           publishOrder
//
//	@Summary		Publish an order to its WooCommerce store
//	@Description	Creates the remote order at most once. Publishing an already published order returns the stored remote id.
//	@Tags			orders
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[app.PublishResult]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/orders/{id}/publish [post]
func (h *OrderHandler) Publish(c *gin.Context) {
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.publisher.Publish(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
