package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// PoolConfig holds the network endpoint of every backend service.
// Services sharing an endpoint share one connection.
type PoolConfig struct {
	Auth     string
	Users    string
	Contacts string
	Sources  string
	Messages string
	Topics   string
}

// Observer receives the outcome of every backend call.
type Observer interface {
	ObserveCall(method, code string, latency time.Duration)
}

// Option customizes NewPool.
type Option func(*poolOptions)

type poolOptions struct {
	observer    Observer
	log         logrus.FieldLogger
	dialOptions []grpc.DialOption
}

// WithObserver reports call latency and outcome to o.
func WithObserver(o Observer) Option {
	return func(p *poolOptions) { p.observer = o }
}

// WithLogger sets the logger used for failed calls.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *poolOptions) { p.log = log }
}

// WithDialOptions appends extra dial options, e.g. a custom dialer in tests.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(p *poolOptions) { p.dialOptions = append(p.dialOptions, opts...) }
}

// Pool is the set of backend clients shared by all requests.
// Fields are never reassigned after NewPool returns.
type Pool struct {
	Auth     AuthService
	Users    UsersService
	Contacts ContactsService
	Sources  SourcesService
	Messages MessagesService
	Topics   TopicsService

	conns []*grpc.ClientConn
}

// NewPool creates the clients. Connections are established lazily on the
// first call, so an unreachable backend does not fail construction.
func NewPool(cfg PoolConfig, opts ...Option) (*Pool, error) {
	o := &poolOptions{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(o)
	}

	dialOptions := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec())),
		grpc.WithDisableRetry(),
		grpc.WithChainUnaryInterceptor(observe(o.observer, o.log)),
	}
	dialOptions = append(dialOptions, o.dialOptions...)

	p := &Pool{}
	byTarget := make(map[string]*grpc.ClientConn)

	conn := func(service, endpoint string) (*grpc.ClientConn, error) {
		target := Target(endpoint)
		if target == "" {
			return nil, fmt.Errorf("%s endpoint is not configured", service)
		}
		if cc, ok := byTarget[target]; ok {
			return cc, nil
		}
		cc, err := grpc.NewClient(target, dialOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client for %q: %w", service, endpoint, err)
		}
		byTarget[target] = cc
		p.conns = append(p.conns, cc)
		return cc, nil
	}

	steps := []struct {
		service  string
		endpoint string
		bind     func(grpc.ClientConnInterface)
	}{
		{"auth", cfg.Auth, func(cc grpc.ClientConnInterface) { p.Auth = NewAuthClient(cc) }},
		{"users", cfg.Users, func(cc grpc.ClientConnInterface) { p.Users = NewUsersClient(cc) }},
		{"contacts", cfg.Contacts, func(cc grpc.ClientConnInterface) { p.Contacts = NewContactsClient(cc) }},
		{"sources", cfg.Sources, func(cc grpc.ClientConnInterface) { p.Sources = NewSourcesClient(cc) }},
		{"messages", cfg.Messages, func(cc grpc.ClientConnInterface) { p.Messages = NewMessagesClient(cc) }},
		{"topics", cfg.Topics, func(cc grpc.ClientConnInterface) { p.Topics = NewTopicsClient(cc) }},
	}

	for _, step := range steps {
		cc, err := conn(step.service, step.endpoint)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		step.bind(cc)
	}

	return p, nil
}

// Close releases every connection. Only called at process shutdown.
func (p *Pool) Close() error {
	var firstErr error
	for _, cc := range p.conns {
		if err := cc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.conns = nil
	return firstErr
}

// Target turns a configured endpoint into a gRPC target. Endpoints written
// as URLs ("http://users:50051") are accepted and reduced to host:port.
func Target(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	for _, scheme := range []string{"http://", "https://"} {
		if strings.HasPrefix(endpoint, scheme) {
			endpoint = strings.TrimPrefix(endpoint, scheme)
			break
		}
	}
	return strings.TrimSuffix(endpoint, "/")
}

// observe returns an interceptor reporting each call to the observer, if
// any, and logging failures.
func observe(o Observer, log logrus.FieldLogger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		latency := time.Since(start)

		if o != nil {
			o.ObserveCall(method, status.Code(err).String(), latency)
		}
		if err != nil {
			log.WithFields(logrus.Fields{
				"method":  method,
				"latency": latency,
			}).WithError(err).Debug("backend call failed")
		}
		return err
	}
}
