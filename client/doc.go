// Package client defines the remote API collaborator the netstore adapter
// calls into, and provides a REST implementation over HTTP/JSON.
//
// The Client interface exposes create/read/update/delete/list/count
// operations keyed by entity description and remote identifier. The REST
// implementation translates queries into URL parameters, classifies HTTP
// failures into typed errors, and applies the configured retry and
// circuit-breaker policies. Retry policy lives here, not in the store:
// the adapter never retries on its own.
package client
