// Package errors provides the persistence-layer error model for netstore.
// It defines structured errors with machine-readable codes, retryable
// detection, and cause chaining, so callers can distinguish transport
// failures from conflicts, validation rejections and missing objects
// without string matching.
package errors
