package handler

import (
	"context"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StoreConnector is the connection service as seen by StoreHandler
type StoreConnector interface {
	Connect(ctx context.Context, in app.ConnectWooCommerceInput) (*integration.Store, error)
	ConnectShopify(ctx context.Context, in app.ConnectShopifyInput) (*integration.Store, error)
	CompleteShopifyOAuth(ctx context.Context, in app.CompleteShopifyOAuthInput) (*app.ShopifyOAuthResult, error)
	Disconnect(ctx context.Context, storeID uuid.UUID) error
	GetStatus(ctx context.Context, brandID uuid.UUID, storeType integration.StoreType) *app.ConnectionStatus
}

// StoreHandler handles store connection endpoints
type StoreHandler struct {
	BaseHandler
	connections StoreConnector
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(connections StoreConnector) *StoreHandler {
	return &StoreHandler{connections: connections}
}

// ConnectWooCommerceRequest represents a request to connect a WooCommerce store
// @Description	WooCommerce REST API credentials of a brand's store
type ConnectWooCommerceRequest struct {
	BrandID        string `json:"brand_id" binding:"required,uuid" example:"3f0c5a52-8a8e-4b43-a3a1-5c1f0b0a9d11"`
	SiteURL        string `json:"site_url" binding:"required,max=2048" example:"https://shop.example.com"`
	ConsumerKey    string `json:"consumer_key" binding:"required,max=255" example:"ck_0123456789"`
	ConsumerSecret string `json:"consumer_secret" binding:"required,max=255" example:"cs_0123456789"`
}

// ConnectShopifyRequest represents a request to connect a Shopify store with an issued admin token
// @Description	Shopify shop domain and admin API access token
type ConnectShopifyRequest struct {
	BrandID     string `json:"brand_id" binding:"required,uuid" example:"3f0c5a52-8a8e-4b43-a3a1-5c1f0b0a9d11"`
	ShopDomain  string `json:"shop_domain" binding:"required,max=255" example:"demo.myshopify.com"`
	AccessToken string `json:"access_token" binding:"required,max=255" example:"shpat_0123456789"`
}

// CompleteShopifyOAuthRequest is the OAuth callback forwarded by the dashboard.
// The dashboard checks state against the value it issued before forwarding.
// @Description	Shopify OAuth callback parameters
type CompleteShopifyOAuthRequest struct {
	BrandID string `json:"brand_id" binding:"required,uuid" example:"3f0c5a52-8a8e-4b43-a3a1-5c1f0b0a9d11"`
	Code    string `json:"code" example:"0907a61c0c8d55e99db179b68161bc00"`
	Shop    string `json:"shop" example:"demo.myshopify.com"`
	State   string `json:"state" example:"nonce-123"`
}

// StoreStatusQuery filters the status endpoint by platform
type StoreStatusQuery struct {
	StoreType string `form:"store_type" binding:"omitempty,oneof=woocommerce shopify internal"`
}

// ConnectWooCommerce godoc
// @ID           connectWooCommerceStore
//
//	@Summary		Connect a WooCommerce store
//	@Description	Stores the brand's WooCommerce credentials. Reconnecting overwrites them and, when the site changed, removes the old site's imported products.
//	@Tags			stores
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ConnectWooCommerceRequest	true	"WooCommerce credentials"
//	@Success		200		{object}	APIResponse[app.StoreView]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/stores/woocommerce/connect [post]
func (h *StoreHandler) ConnectWooCommerce(c *gin.Context) {
	var req ConnectWooCommerceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	store, err := h.connections.Connect(c.Request.Context(), app.ConnectWooCommerceInput{
		BrandID:        uuid.MustParse(req.BrandID),
		SiteURL:        req.SiteURL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, app.NewStoreView(store))
}

// ConnectShopify godoc
// @ID           connectShopifyStore
//
//	@Summary		Connect a Shopify store with an admin token
//	@Tags			stores
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ConnectShopifyRequest	true	"Shopify credentials"
//	@Success		200		{object}	APIResponse[app.StoreView]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/stores/shopify/connect [post]
func (h *StoreHandler) ConnectShopify(c *gin.Context) {
	var req ConnectShopifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	store, err := h.connections.ConnectShopify(c.Request.Context(), app.ConnectShopifyInput{
		BrandID:     uuid.MustParse(req.BrandID),
		ShopDomain:  req.ShopDomain,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, app.NewStoreView(store))
}

// CompleteShopifyOAuth godoc
// @ID           completeShopifyOAuth
//
//	@Summary		Finish the Shopify OAuth install
//	@Description	Exchanges the authorization code for an admin token and stores it for the brand.
//	@Tags			stores
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CompleteShopifyOAuthRequest	true	"OAuth callback"
//	@Success		200		{object}	APIResponse[app.ShopifyOAuthResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/stores/shopify/oauth/complete [post]
func (h *StoreHandler) CompleteShopifyOAuth(c *gin.Context) {
	var req CompleteShopifyOAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.connections.CompleteShopifyOAuth(c.Request.Context(), app.CompleteShopifyOAuthInput{
		BrandID: uuid.MustParse(req.BrandID),
		Code:    req.Code,
		Shop:    req.Shop,
		State:   req.State,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Disconnect godoc
// @ID           disconnectStore
//
//	@Summary		Disconnect a store
//	@Description	Deletes the store and everything imported from it.
//	@Tags			stores
//	@Param			id	path	string	true	"Store ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/stores/{id} [delete]
func (h *StoreHandler) Disconnect(c *gin.Context) {
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.connections.Disconnect(c.Request.Context(), storeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// GetStatus godoc
// @ID           getStoreStatus
//
//	@Summary		Get a brand's store connection status
//	@Description	Never fails: lookup errors and timeouts report a disconnected store.
//	@Tags			stores
//	@Produce		json
//	@Param			brand_id	path		string	true	"Brand ID"	format(uuid)
//	@Param			store_type	query		string	false	"Platform filter"	Enums(woocommerce, shopify, internal)
//	@Success		200			{object}	APIResponse[app.ConnectionStatus]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/brands/{brand_id}/store-status [get]
func (h *StoreHandler) GetStatus(c *gin.Context) {
	brandID, ok := h.pathUUID(c, "brand_id")
	if !ok {
		return
	}

	var query StoreStatusQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	h.Success(c, h.connections.GetStatus(c.Request.Context(), brandID, integration.StoreType(query.StoreType)))
}
