// Package schema provides structural record-type descriptors and the
// registry that answers type-compatibility queries for the blockflow
// runtime. Schemas are identified by key; components hold keys and look
// descriptors up through an explicit Registry instance.
package schema
