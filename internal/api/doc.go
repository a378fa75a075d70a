// Package api implements the HTTP/JSON surface of the gateway.
//
// Each endpoint translates one inbound document into backend requests and
// the backend responses into one outbound document. Multi-entity views are
// delegated to an Aggregator. Failures are classified by StatusFor, logged
// with full detail, and answered with a bare status code and an empty body.
package api
