// Package integration contains the store-integration bounded context.
// It connects a brand's external e-commerce store (WooCommerce, Shopify), lists and
// deduplicates the remote catalog, imports selected items, and publishes local orders
// back to the remote platform.
//
// Key concepts:
//   - Store: one brand-to-platform connection carrying typed credentials
//   - Product: a catalog item owned by a Store; (store, external product id) is the dedup key
//   - RemoteProduct: normalized remote catalog entry, tagged with AlreadyImported
//   - SyncLog: append-only record of one sync attempt
//   - Order: a locally created order that may be published to the remote platform
//
// Design Pattern: Ports & Adapters
//   - Ports (CatalogProxy, CatalogSource, OrderGateway, OAuthExchanger, repositories) are defined here
//   - Adapters (implementations) are in the infrastructure layer
package integration
