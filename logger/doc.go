// Package logger provides structured logging for netstore, built on
// zerolog. Components obtain tagged loggers and emit key-value fields so
// cache hits, remote calls and save outcomes are greppable in production
// logs.
package logger
