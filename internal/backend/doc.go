// Package backend implements the client pool for the gateway's backend RPC services.
//
// One long-lived client per service (auth, users, contacts, sources, messages, topics) is
// built at startup on top of lazily connected gRPC channels. Backend failures are normalized
// to a small set of sentinel codes so the HTTP layer can classify them without knowing gRPC.
//
// Messages are encoded as JSON, so the backends are expected to serve the
// application/grpc+json content-subtype.
package backend
