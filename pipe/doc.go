// Package pipe defines the transformation contract of the runtime: a
// pipe is a named function from zero or more typed input slots to an
// output block, declared through an explicit interface descriptor
// rather than discovered by reflection. The resolver binds upstream
// blocks to slots, unifies type variables across slots, and rejects
// bindings that cannot satisfy the declaration before the pipe is ever
// invoked.
package pipe
