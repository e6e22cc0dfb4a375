// Package convert implements the conversion engine: a registry of
// converters between (storage, format) pairs with declared cost, and a
// least-cost path search that materializes a block replica in a
// requested pair when no direct converter exists. Paths prefer cheap
// hops, then fewer hops, then staying streaming-capable for as long as
// possible so lazy sequences are not collapsed prematurely.
package convert
