package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bzd-chat/gateway/internal/aggregate"
	"github.com/bzd-chat/gateway/internal/audit"
	"github.com/bzd-chat/gateway/internal/backend"
	"github.com/bzd-chat/gateway/internal/metrics"
)

// Aggregator builds the multi-entity views.
type Aggregator interface {
	ListRelations(ctx context.Context, caller string) (*aggregate.Relations, error)
	SourceDetail(ctx context.Context, caller, target string) (*aggregate.SourceDetail, error)
	ListSourcesWithTopics(ctx context.Context, caller string) (*aggregate.Overview, error)
}

// Backends are the service clients used by single-call endpoints.
type Backends struct {
	Auth     backend.AuthService
	Users    backend.UsersService
	Contacts backend.ContactsService
	Sources  backend.SourcesService
	Messages backend.MessagesService
	Topics   backend.TopicsService
}

// BackendsFromPool exposes the pool's clients as Backends.
func BackendsFromPool(p *backend.Pool) Backends {
	return Backends{
		Auth:     p.Auth,
		Users:    p.Users,
		Contacts: p.Contacts,
		Sources:  p.Sources,
		Messages: p.Messages,
		Topics:   p.Topics,
	}
}

// MetricsPort defines the request metrics the server reports.
type MetricsPort interface {
	RequestStarted() func()
	ObserveRequest(method, route string, status int, latency time.Duration)
	RateLimited()
	Handler() http.Handler
}

// AuditPort records one entry per completed request.
type AuditPort interface {
	Record(entry audit.Entry)
}

// Compile-time assertions for port conformance
var _ Aggregator = (*aggregate.Engine)(nil)
var _ MetricsPort = (*metrics.Collector)(nil)
var _ AuditPort = (*audit.Logger)(nil)
