// Package model defines the data model shared by the netstore adapter and
// its collaborators: entity descriptions, object identifiers, attribute
// snapshots, filter predicates, sort descriptors, and the fetch/save
// request and result types exchanged with the store.
//
// Requests are transient values constructed per call; the store never
// retains them beyond the call that produced them. Snapshots are plain
// attribute maps plus an optional version counter for optimistic
// concurrency; they are deep-copied at every cache boundary so cached
// state can never be mutated by a caller.
package model
