// Package productapi serves the products sample HTTP API on top of any
// product store.
//
// Routes:
//
//	GET    /api/products                 list; page, size, sort, desc, min_price
//	POST   /api/products                 create one product
//	POST   /api/products/batch           create many products at once
//	GET    /api/products/expensive?min=  products above a price, priciest first
//	GET    /api/products/{id}
//	PUT    /api/products/{id}
//	DELETE /api/products/{id}
//	GET    /healthz
//	GET    /metrics
//
// The store handed to [New] is wrapped, from the inside out, with Prometheus
// instrumentation, an optional read-through cache and a read-only guard that
// [App.SetReadOnly] toggles at runtime.
package productapi
