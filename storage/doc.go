// Package storage defines the closed set of storage kinds and data
// formats the blockflow runtime moves blocks between, plus the backend
// engine contract that reads and writes physical replicas. The package
// carries identity and capability flags only; conversion logic lives in
// package convert.
package storage
