package handler

import (
	"context"

	app "github.com/brandlive/storesync/internal/application/integration"
	"github.com/brandlive/storesync/internal/domain/integration"
	"github.com/brandlive/storesync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogManager is the catalog service as seen by CatalogHandler
type CatalogManager interface {
	ListRemoteProducts(ctx context.Context, in app.ListRemoteProductsInput) (*integration.RemoteCatalog, error)
	ImportSelected(ctx context.Context, storeID uuid.UUID, selected []integration.RemoteProduct) (*app.ImportResult, error)
	TriggerProxySync(ctx context.Context, storeID uuid.UUID) (int, error)
	SyncInventory(ctx context.Context, storeID uuid.UUID) (*app.InventorySyncResult, error)
}

// SyncLogLister lists the sync history of a store
type SyncLogLister interface {
	ListSyncLogs(ctx context.Context, storeID uuid.UUID, limit int) ([]integration.SyncLog, error)
}

// CatalogHandler handles remote catalog, import and sync endpoints
type CatalogHandler struct {
	BaseHandler
	catalog  CatalogManager
	syncLogs SyncLogLister
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog CatalogManager, syncLogs SyncLogLister) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, syncLogs: syncLogs}
}

// RemoteProductsQuery selects the store whose remote catalog is listed.
// store_id wins over brand_id.
type RemoteProductsQuery struct {
	StoreID  string `form:"store_id" binding:"omitempty,uuid"`
	BrandID  string `form:"brand_id" binding:"omitempty,uuid"`
	Platform string `form:"platform" binding:"omitempty,max=32"`
	Limit    int    `form:"limit" binding:"omitempty,gte=0"`
}

// ImportProductsRequest carries the remote products picked in the dashboard
// @Description	Remote products to import, as returned by the remote catalog listing
type ImportProductsRequest struct {
	Products []integration.RemoteProduct `json:"products" binding:"required,max=500"`
}

// SyncLogsQuery pages the sync history
type SyncLogsQuery struct {
	Limit int `form:"limit" binding:"omitempty,gte=0"`
}

// ListRemoteProducts godoc
// @ID           listRemoteProducts
//
//	@Summary		List a store's remote catalog
//	@Description	Lists products from the catalog proxy, falling back to the platform API. Each product is tagged already_imported.
//	@Tags			catalog
//	@Produce		json
//	@Param			store_id	query		string	false	"Store ID"	format(uuid)
//	@Param			brand_id	query		string	false	"Brand ID, used when store_id is absent"	format(uuid)
//	@Param			platform	query		string	false	"Platform of the brand's store"	Enums(woocommerce, shopify)
//	@Param			limit		query		int		false	"Maximum products"
//	@Success		200			{object}	APIResponse[integration.RemoteCatalog]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Router			/catalog/remote-products [get]
func (h *CatalogHandler) ListRemoteProducts(c *gin.Context) {
	var query RemoteProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	in := app.ListRemoteProductsInput{
		Platform: integration.StoreType(query.Platform),
		Limit:    query.Limit,
	}
	if query.StoreID != "" {
		id := uuid.MustParse(query.StoreID)
		in.StoreID = &id
	}
	if query.BrandID != "" {
		id := uuid.MustParse(query.BrandID)
		in.BrandID = &id
	}

	catalog, err := h.catalog.ListRemoteProducts(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, catalog)
}

// ImportSelected godoc
// @ID           importRemoteProducts
//
//	@Summary		Import selected remote products
//	@Description	Inserts the products one by one. Already imported products are skipped; per-item failures are reported without stopping the batch. Answers 422 when no product could be imported.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Store ID"	format(uuid)
//	@Param			request	body		ImportProductsRequest	true	"Selected products"
//	@Success		200		{object}	APIResponse[app.ImportResult]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	APIResponse[app.ImportResult]
//	@Router			/stores/{id}/imports [post]
func (h *CatalogHandler) ImportSelected(c *gin.Context) {
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req ImportProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.catalog.ImportSelected(c.Request.Context(), storeID, req.Products)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Status == integration.SyncStatusFailed {
		status, code, message := dto.ResolveError(result.Err())
		resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
		resp.Data = result
		c.JSON(status, resp)
		return
	}

	h.Success(c, result)
}

// TriggerProxySync godoc
// @ID           triggerProxySync
//
//	@Summary		Ask the catalog proxy to sync a store
//	@Tags			sync
//	@Produce		json
//	@Param			id	path		string	true	"Store ID"	format(uuid)
//	@Success		200	{object}	APIResponse[SyncedData]
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Router			/stores/{id}/sync [post]
func (h *CatalogHandler) TriggerProxySync(c *gin.Context) {
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	synced, err := h.catalog.TriggerProxySync(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SyncedData{Synced: synced})
}

// SyncInventory godoc
// @ID           syncInventory
//
//	@Summary		Refresh stock of imported products
//	@Tags			sync
//	@Produce		json
//	@Param			id	path		string	true	"Store ID"	format(uuid)
//	@Success		200	{object}	APIResponse[app.InventorySyncResult]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse
//	@Router			/stores/{id}/inventory-sync [post]
func (h *CatalogHandler) SyncInventory(c *gin.Context) {
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.catalog.SyncInventory(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListSyncLogs godoc
// @ID           listSyncLogs
//
//	@Summary		List a store's sync history, newest first
//	@Tags			sync
//	@Produce		json
//	@Param			id		path		string	true	"Store ID"	format(uuid)
//	@Param			limit	query		int		false	"Maximum entries (default 20, max 100)"
//	@Success		200		{object}	APIResponse[[]app.SyncLogView]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/stores/{id}/sync-logs [get]
func (h *CatalogHandler) ListSyncLogs(c *gin.Context) {
	storeID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var query SyncLogsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	logs, err := h.syncLogs.ListSyncLogs(c.Request.Context(), storeID, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, app.NewSyncLogViews(logs))
}
