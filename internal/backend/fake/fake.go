// Package fake provides an in-memory backend implementing every service
// interface of package backend, for tests of the aggregation engine and the
// HTTP layer.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/bzd-chat/gateway/internal/backend"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Backend holds the seeded entities. Seed it through the exported fields
// before use; they are read under the mutex afterwards.
type Backend struct {
	mu sync.Mutex

	Users      []backend.User
	Sources    []backend.Source
	Contacts   []backend.Contact
	Topics     []backend.Topic
	TopicUsers []backend.TopicUser

	// VerificationID is returned by Join; JWT by Complete.
	VerificationID *string
	JWT            *string

	// Last requests seen by the write operations.
	LastJoin           *backend.JoinRequest
	LastComplete       *backend.CompleteRequest
	LastCreateMessage  *backend.CreateMessageRequest
	LastCreateContacts *backend.CreateContactsRequest

	failures map[string]error
	calls    []string
	seq      int
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{failures: make(map[string]error)}
}

// FailOn makes every call to method return a status with the given code,
// normalized the way the real clients normalize it.
func (b *Backend) FailOn(method string, code codes.Code) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = backend.Normalize(method, status.Error(code, "injected failure"))
}

// Calls returns the full method names called so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// enter records the call and returns an injected failure, if any.
// The caller must hold b.mu.
func (b *Backend) enter(ctx context.Context, method string) error {
	b.calls = append(b.calls, method)
	if err := ctx.Err(); err != nil {
		return backend.Normalize(method, err)
	}
	return b.failures[method]
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func notFound(method, what string) error {
	return backend.Normalize(method, status.Errorf(codes.NotFound, "%s not found", what))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// --- AuthService ---

func (b *Backend) Join(ctx context.Context, in *backend.JoinRequest) (*backend.JoinResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.AuthJoin); err != nil {
		return nil, err
	}
	b.LastJoin = in
	if b.VerificationID == nil {
		return &backend.JoinResponse{}, nil
	}
	return &backend.JoinResponse{
		Verification: &backend.Verification{VerificationID: b.VerificationID},
	}, nil
}

func (b *Backend) Complete(ctx context.Context, in *backend.CompleteRequest) (*backend.CompleteResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.AuthComplete); err != nil {
		return nil, err
	}
	b.LastComplete = in
	return &backend.CompleteResponse{JWT: b.JWT}, nil
}

// --- UsersService ---

func (b *Backend) GetUser(ctx context.Context, in *backend.GetUserRequest) (*backend.GetUserResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.UsersGetUser); err != nil {
		return nil, err
	}
	for i := range b.Users {
		if deref(b.Users[i].UserID) == deref(in.UserID) {
			user := b.Users[i]
			return &backend.GetUserResponse{User: &user}, nil
		}
	}
	return nil, notFound(backend.UsersGetUser, "user")
}

// GetUsers returns the seeded users whose id was requested, in seed order.
// Unknown ids are skipped, like a backend with dangling references would.
func (b *Backend) GetUsers(ctx context.Context, in *backend.GetUsersRequest) (*backend.GetUsersResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.UsersGetUsers); err != nil {
		return nil, err
	}
	res := &backend.GetUsersResponse{}
	for _, u := range b.Users {
		if contains(in.UserIDs, deref(u.UserID)) {
			res.Users = append(res.Users, u)
		}
	}
	return res, nil
}

// --- SourcesService ---

func (b *Backend) GetSources(ctx context.Context, in *backend.GetSourcesRequest) (*backend.GetSourcesResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.SourcesGetSources); err != nil {
		return nil, err
	}
	res := &backend.GetSourcesResponse{}
	for _, s := range b.Sources {
		if deref(s.UserID) == deref(in.UserID) {
			res.Sources = append(res.Sources, s)
		}
	}
	for _, c := range b.Contacts {
		if deref(c.UserID) == deref(in.UserID) {
			res.Contacts = append(res.Contacts, c)
		}
	}
	return res, nil
}

func (b *Backend) GetSource(ctx context.Context, in *backend.GetSourceRequest) (*backend.GetSourceResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.SourcesGetSource); err != nil {
		return nil, err
	}
	for i := range b.Sources {
		s := b.Sources[i]
		if deref(s.UserID) == deref(in.UserID) && deref(s.SourceUserID) == deref(in.SourceUserID) {
			return &backend.GetSourceResponse{Source: &s}, nil
		}
	}
	return nil, notFound(backend.SourcesGetSource, "source")
}

func (b *Backend) CreateSource(ctx context.Context, in *backend.CreateSourceRequest) (*backend.CreateSourceResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.SourcesCreateSource); err != nil {
		return nil, err
	}
	id := backend.String(b.nextID("source"))
	b.Sources = append(b.Sources, backend.Source{SourceID: id, UserID: in.UserID, SourceUserID: in.SourceUserID})
	return &backend.CreateSourceResponse{SourceID: id}, nil
}

// --- ContactsService ---

func (b *Backend) CreateContacts(ctx context.Context, in *backend.CreateContactsRequest) (*backend.CreateContactsResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.ContactsCreateContacts); err != nil {
		return nil, err
	}
	b.LastCreateContacts = in
	return &backend.CreateContactsResponse{}, nil
}

// --- MessagesService ---

func (b *Backend) CreateMessage(ctx context.Context, in *backend.CreateMessageRequest) (*backend.CreateMessageResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.MessagesCreateMessage); err != nil {
		return nil, err
	}
	b.LastCreateMessage = in
	return &backend.CreateMessageResponse{MessageID: backend.String(b.nextID("message"))}, nil
}

// --- TopicsService ---

func (b *Backend) GetTopics(ctx context.Context, in *backend.GetTopicsRequest) (*backend.GetTopicsResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsGetTopics); err != nil {
		return nil, err
	}
	res := &backend.GetTopicsResponse{}
	for _, t := range b.Topics {
		if contains(in.UserIDs, deref(t.UserID)) {
			res.Topics = append(res.Topics, t)
		}
	}
	return res, nil
}

func (b *Backend) GetTopic(ctx context.Context, in *backend.GetTopicRequest) (*backend.GetTopicResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsGetTopic); err != nil {
		return nil, err
	}
	for i := range b.Topics {
		t := b.Topics[i]
		if deref(t.TopicID) == deref(in.TopicID) {
			return &backend.GetTopicResponse{Topic: &t}, nil
		}
	}
	return nil, notFound(backend.TopicsGetTopic, "topic")
}

func (b *Backend) CreateTopic(ctx context.Context, in *backend.CreateTopicRequest) (*backend.CreateTopicResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsCreateTopic); err != nil {
		return nil, err
	}
	id := backend.String(b.nextID("topic"))
	b.Topics = append(b.Topics, backend.Topic{TopicID: id, UserID: in.UserID, Title: in.Title})
	return &backend.CreateTopicResponse{TopicID: id}, nil
}

// GetTopicsUsers returns memberships in the requested topics held by the
// requested users, in seed order.
func (b *Backend) GetTopicsUsers(ctx context.Context, in *backend.GetTopicsUsersRequest) (*backend.GetTopicsUsersResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsGetTopicsUsers); err != nil {
		return nil, err
	}
	res := &backend.GetTopicsUsersResponse{}
	for _, tu := range b.TopicUsers {
		if contains(in.TopicIDs, deref(tu.TopicID)) && contains(in.UserIDs, deref(tu.UserID)) {
			res.TopicsUsers = append(res.TopicsUsers, tu)
		}
	}
	return res, nil
}

func (b *Backend) CreateTopicUser(ctx context.Context, in *backend.CreateTopicUserRequest) (*backend.CreateTopicUserResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsCreateTopicUser); err != nil {
		return nil, err
	}
	id := backend.String(b.nextID("topic-user"))
	b.TopicUsers = append(b.TopicUsers, backend.TopicUser{TopicUserID: id, TopicID: in.TopicID, UserID: in.UserID})
	return &backend.CreateTopicUserResponse{TopicUserID: id}, nil
}

func (b *Backend) DeleteTopicUser(ctx context.Context, in *backend.DeleteTopicUserRequest) (*backend.DeleteTopicUserResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, backend.TopicsDeleteTopicUser); err != nil {
		return nil, err
	}
	for i, tu := range b.TopicUsers {
		if deref(tu.TopicUserID) == deref(in.TopicUserID) && deref(tu.UserID) == deref(in.UserID) {
			b.TopicUsers = append(b.TopicUsers[:i], b.TopicUsers[i+1:]...)
			return &backend.DeleteTopicUserResponse{}, nil
		}
	}
	return nil, notFound(backend.TopicsDeleteTopicUser, "topic user")
}

// Compile-time assertions that Backend implements every service.
var (
	_ backend.AuthService     = (*Backend)(nil)
	_ backend.UsersService    = (*Backend)(nil)
	_ backend.SourcesService  = (*Backend)(nil)
	_ backend.ContactsService = (*Backend)(nil)
	_ backend.MessagesService = (*Backend)(nil)
	_ backend.TopicsService   = (*Backend)(nil)
)

// User builds a complete user record whose fields derive from id.
func User(id string) backend.User {
	return backend.User{
		UserID: backend.String(id),
		Name:   backend.String("name-" + id),
		Phone:  backend.String("phone-" + id),
		Abbr:   backend.String("abbr-" + id),
		Color:  backend.String("color-" + id),
	}
}

func Source(id, owner, target string) backend.Source {
	return backend.Source{
		SourceID:     backend.String(id),
		UserID:       backend.String(owner),
		SourceUserID: backend.String(target),
	}
}

func Contact(id, owner, target, name string) backend.Contact {
	return backend.Contact{
		ContactID:     backend.String(id),
		UserID:        backend.String(owner),
		ContactUserID: backend.String(target),
		Name:          backend.String(name),
	}
}

func Topic(id, owner, title string) backend.Topic {
	return backend.Topic{
		TopicID: backend.String(id),
		UserID:  backend.String(owner),
		Title:   backend.String(title),
	}
}

func TopicUser(id, topic, user string) backend.TopicUser {
	return backend.TopicUser{
		TopicUserID: backend.String(id),
		TopicID:     backend.String(topic),
		UserID:      backend.String(user),
	}
}
