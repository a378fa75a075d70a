// Package audit writes the request audit trail.
//
// Each completed request yields one JSON line with the caller, route, status,
// outcome and latency. Files are rotated by size.
package audit
