// Package aggregate assembles the multi-entity views served by the gateway.
//
// A view is produced by a pipeline of dependent backend calls executed
// strictly in order; each step consumes identifiers produced by the previous
// one. Results are joined through identifier-keyed indices, never by
// position. A reference that does not resolve fails the whole view with
// ErrUnresolved, and a failed backend call aborts the pipeline without
// issuing the remaining calls. Pipelines never return partial views.
package aggregate
