// Package store implements the incremental persistence-store adapter at
// the core of netstore. It sits between a generic persistence caller and
// a remote REST-like API: fetch requests are answered from the local
// snapshot cache when the predicate pins exact identifiers that are all
// cached, and delegated to the API client otherwise; save requests are
// pushed to the API object by object, refreshing the cache on every
// acknowledged write.
//
// The adapter is deliberately stateless across calls except for the
// cache. Each call either fully succeeds or reports an error; a save is
// applied best-effort per object, with per-object failures collected in
// the result. The cache guards its own state, and the store never holds
// a cache lock while a network call is in flight.
package store
