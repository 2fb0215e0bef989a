// Package models contains GORM persistence models that map to database tables.
// Domain entities stay free of GORM tags; repositories convert through
// ToDomain / FromDomain mappers.
//
//   - base.go: BaseModel shared by entity tables
//   - integration.go: stores, products, sync_logs, orders, order_items
package models
