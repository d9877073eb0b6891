// Package cache provides the snapshot cache used by the netstore adapter.
// Entries map object identifiers to their most recently fetched or saved
// attribute snapshots. Entries are created on successful fetch or save,
// overwritten on subsequent operations for the same identifier, and live
// for the process lifetime unless evicted by the configured bound or
// explicitly invalidated.
//
// The in-memory implementation guards all access with a lock and copies
// snapshots on both sides of the boundary, so concurrent contexts can
// never observe a torn write. The cache/sqlite subpackage offers a
// persistent backend with the same interface for warm-start deployments.
package cache
