package aggregate

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/bzd-chat/gateway/internal/backend"
	"github.com/bzd-chat/gateway/internal/backend/fake"
)

func newTestEngine(t *testing.T, b *fake.Backend) (*Engine, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewEngine(b, b, b, log), hook
}

func profile(id string) Profile {
	u := fake.User(id)
	return Profile{UserID: *u.UserID, Name: *u.Name, Phone: *u.Phone, Abbr: *u.Abbr, Color: *u.Color}
}

func TestListRelationsJoinsProfiles(t *testing.T) {
	b := fake.New()
	b.Users = []backend.User{fake.User("u2")}
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}

	engine, _ := newTestEngine(t, b)
	rel, err := engine.ListRelations(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []Source{{SourceID: "s1", User: profile("u2")}}, rel.Sources)
	assert.NotNil(t, rel.Contacts)
	assert.Empty(t, rel.Contacts)
	assert.Equal(t, []string{backend.SourcesGetSources, backend.UsersGetUsers}, b.Calls())
}

func TestListRelationsKeepsBackendOrder(t *testing.T) {
	b := fake.New()
	// GetUsers answers in seed order, which differs from reference order.
	b.Users = []backend.User{fake.User("u4"), fake.User("u3"), fake.User("u2")}
	b.Sources = []backend.Source{
		fake.Source("s1", "u1", "u2"),
		fake.Source("s2", "u1", "u3"),
	}
	b.Contacts = []backend.Contact{
		fake.Contact("c1", "u1", "u4", "Dana"),
		fake.Contact("c2", "u1", "u2", "Bo"),
	}

	engine, _ := newTestEngine(t, b)
	rel, err := engine.ListRelations(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, rel.Sources, 2)
	assert.Equal(t, "s1", rel.Sources[0].SourceID)
	assert.Equal(t, profile("u2"), rel.Sources[0].User)
	assert.Equal(t, "s2", rel.Sources[1].SourceID)
	assert.Equal(t, profile("u3"), rel.Sources[1].User)

	assert.Equal(t, []Contact{
		{ContactID: "c1", ContactName: "Dana", User: profile("u4")},
		{ContactID: "c2", ContactName: "Bo", User: profile("u2")},
	}, rel.Contacts)
}

func TestListRelationsRequestsUnionOnce(t *testing.T) {
	users := &recordingUsers{Backend: fake.New()}
	users.Users = []backend.User{fake.User("u2"), fake.User("u3")}
	users.Sources = []backend.Source{
		fake.Source("s1", "u1", "u2"),
		fake.Source("s2", "u1", "u3"),
	}
	users.Contacts = []backend.Contact{fake.Contact("c1", "u1", "u2", "Bo")}

	engine := NewEngine(users, users.Backend, users.Backend, nil)
	_, err := engine.ListRelations(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, []string{"u2", "u3"}, users.requested)
}

func TestListRelationsEmpty(t *testing.T) {
	b := fake.New()

	engine, _ := newTestEngine(t, b)
	rel, err := engine.ListRelations(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotNil(t, rel.Sources)
	assert.NotNil(t, rel.Contacts)
	assert.Equal(t, []string{backend.SourcesGetSources, backend.UsersGetUsers}, b.Calls())
}

func TestListRelationsUnresolvedUserFails(t *testing.T) {
	tests := []struct {
		name   string
		seed   func(b *fake.Backend)
		entity string
	}{
		{
			name: "source user missing",
			seed: func(b *fake.Backend) {
				b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
			},
			entity: "source",
		},
		{
			name: "contact user missing",
			seed: func(b *fake.Backend) {
				b.Users = []backend.User{fake.User("u2")}
				b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
				b.Contacts = []backend.Contact{fake.Contact("c1", "u1", "u9", "Ghost")}
			},
			entity: "contact",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := fake.New()
			tt.seed(b)

			engine, _ := newTestEngine(t, b)
			rel, err := engine.ListRelations(context.Background(), "u1")

			assert.Nil(t, rel)
			require.ErrorIs(t, err, ErrUnresolved)

			var joinErr *JoinError
			require.ErrorAs(t, err, &joinErr)
			assert.Equal(t, tt.entity, joinErr.Entity)
			assert.Equal(t, "user", joinErr.Ref)
		})
	}
}

func TestListRelationsIncompleteUserFails(t *testing.T) {
	b := fake.New()
	partial := fake.User("u2")
	partial.Color = nil
	b.Users = []backend.User{partial}
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}

	engine, _ := newTestEngine(t, b)
	_, err := engine.ListRelations(context.Background(), "u1")

	require.ErrorIs(t, err, backend.ErrIncomplete)
	var contractErr *backend.ContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "color", contractErr.Field)
}

func TestListRelationsBackendFailureStopsPipeline(t *testing.T) {
	b := fake.New()
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
	b.FailOn(backend.SourcesGetSources, codes.Unavailable)

	engine, hook := newTestEngine(t, b)
	_, err := engine.ListRelations(context.Background(), "u1")

	require.ErrorIs(t, err, backend.ErrUnavailable)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 1, stepErr.Step)
	assert.Equal(t, backend.SourcesGetSources, stepErr.Method)

	assert.Equal(t, []string{backend.SourcesGetSources}, b.Calls())

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "pipeline step failed", last.Message)
	assert.Equal(t, "list_relations", last.Data["pipeline"])
	assert.Equal(t, 1, last.Data["step"])
}

func seedDetail(b *fake.Backend) {
	b.Users = []backend.User{fake.User("u1"), fake.User("u2")}
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
	b.Topics = []backend.Topic{
		fake.Topic("t1", "u2", "Hiking"),
		fake.Topic("t2", "u2", "Books"),
		fake.Topic("t3", "u2", "Drafts"),
	}
	b.TopicUsers = []backend.TopicUser{
		fake.TopicUser("tu2", "t2", "u2"),
		fake.TopicUser("tu1", "t1", "u2"),
		fake.TopicUser("tu9", "t1", "u1"),
	}
}

func TestSourceDetailIntersectsTopicsAndMemberships(t *testing.T) {
	b := fake.New()
	seedDetail(b)

	engine, _ := newTestEngine(t, b)
	detail, err := engine.SourceDetail(context.Background(), "u1", "u2")
	require.NoError(t, err)

	assert.Equal(t, "s1", detail.SourceID)
	assert.Equal(t, DetailUser{UserID: "u2", Name: "name-u2", Abbr: "abbr-u2", Color: "color-u2"}, detail.User)
	// t3 has no membership for u2; membership order wins over topic order.
	assert.Equal(t, []DetailTopic{
		{TopicID: "t2", Title: "Books"},
		{TopicID: "t1", Title: "Hiking"},
	}, detail.Topics)

	assert.Equal(t, []string{
		backend.SourcesGetSource,
		backend.UsersGetUser,
		backend.TopicsGetTopics,
		backend.TopicsGetTopicsUsers,
	}, b.Calls())
}

func TestSourceDetailAbortsOnThirdCall(t *testing.T) {
	b := fake.New()
	seedDetail(b)
	b.FailOn(backend.TopicsGetTopics, codes.Internal)

	engine, _ := newTestEngine(t, b)
	detail, err := engine.SourceDetail(context.Background(), "u1", "u2")

	assert.Nil(t, detail)
	require.ErrorIs(t, err, backend.ErrInternal)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 3, stepErr.Step)
	assert.Equal(t, "source_detail", stepErr.Pipeline)

	// The fourth call is never issued.
	assert.Equal(t, []string{
		backend.SourcesGetSource,
		backend.UsersGetUser,
		backend.TopicsGetTopics,
	}, b.Calls())
}

func TestSourceDetailUnknownSourceIsNotFound(t *testing.T) {
	b := fake.New()
	seedDetail(b)

	engine, _ := newTestEngine(t, b)
	_, err := engine.SourceDetail(context.Background(), "u1", "u7")

	require.ErrorIs(t, err, backend.ErrNotFound)
	assert.Equal(t, []string{backend.SourcesGetSource}, b.Calls())
}

func TestSourceDetailUnresolvedTopicFails(t *testing.T) {
	b := fake.New()
	seedDetail(b)
	topics := &danglingTopics{Backend: b, extra: fake.TopicUser("tu5", "t-gone", "u2")}

	engine := NewEngine(b, b, topics, nil)
	_, err := engine.SourceDetail(context.Background(), "u1", "u2")

	require.ErrorIs(t, err, ErrUnresolved)
	var joinErr *JoinError
	require.ErrorAs(t, err, &joinErr)
	assert.Equal(t, "topic", joinErr.Ref)
	assert.Equal(t, "t-gone", joinErr.RefID)
}

func TestSourceDetailForeignMemberFails(t *testing.T) {
	b := fake.New()
	seedDetail(b)
	topics := &danglingTopics{Backend: b, extra: fake.TopicUser("tu6", "t1", "u3")}

	engine := NewEngine(b, b, topics, nil)
	_, err := engine.SourceDetail(context.Background(), "u1", "u2")

	var joinErr *JoinError
	require.ErrorAs(t, err, &joinErr)
	assert.Equal(t, "user", joinErr.Ref)
	assert.Equal(t, "u3", joinErr.RefID)
}

func TestListSourcesWithTopics(t *testing.T) {
	b := fake.New()
	b.Users = []backend.User{fake.User("u2"), fake.User("u3")}
	b.Sources = []backend.Source{
		fake.Source("s1", "u1", "u2"),
		fake.Source("s2", "u1", "u3"),
	}
	b.Topics = []backend.Topic{
		fake.Topic("t1", "u2", "Hiking"),
		fake.Topic("t2", "u1", "Family"),
	}
	b.TopicUsers = []backend.TopicUser{
		fake.TopicUser("tu1", "t1", "u2"),
		fake.TopicUser("tu2", "t2", "u2"),
		fake.TopicUser("tu3", "t2", "u1"),
	}

	engine, _ := newTestEngine(t, b)
	overview, err := engine.ListSourcesWithTopics(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, overview.Sources, 2)

	first := overview.Sources[0]
	assert.Equal(t, "s1", first.SourceID)
	assert.Equal(t, profile("u2"), first.User)
	assert.Equal(t, []SourceTopic{
		{TopicID: "t1", Title: "Hiking"},
		{TopicID: "t2", Title: "Family", TopicUser: &TopicUserRef{TopicUserID: "tu3"}},
	}, first.Topics)

	second := overview.Sources[1]
	assert.Equal(t, "s2", second.SourceID)
	assert.NotNil(t, second.Topics)
	assert.Empty(t, second.Topics)

	assert.Equal(t, []string{
		backend.SourcesGetSources,
		backend.UsersGetUsers,
		backend.TopicsGetTopics,
		backend.TopicsGetTopicsUsers,
	}, b.Calls())
}

func TestListSourcesWithTopicsListsEachTopicOnce(t *testing.T) {
	b := fake.New()
	b.Users = []backend.User{fake.User("u2")}
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
	b.Topics = []backend.Topic{
		fake.Topic("t1", "u2", "Hiking"),
		fake.Topic("t2", "u2", "Climbing"),
	}
	b.TopicUsers = []backend.TopicUser{
		fake.TopicUser("tu1", "t1", "u2"),
		fake.TopicUser("tu2", "t2", "u2"),
		fake.TopicUser("tu3", "t1", "u2"),
	}

	engine, _ := newTestEngine(t, b)
	overview, err := engine.ListSourcesWithTopics(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, overview.Sources, 1)
	assert.Equal(t, []SourceTopic{
		{TopicID: "t1", Title: "Hiking"},
		{TopicID: "t2", Title: "Climbing"},
	}, overview.Sources[0].Topics)
}

func TestListSourcesWithTopicsStopsOnMembershipFailure(t *testing.T) {
	b := fake.New()
	b.Users = []backend.User{fake.User("u2")}
	b.Sources = []backend.Source{fake.Source("s1", "u1", "u2")}
	b.FailOn(backend.TopicsGetTopicsUsers, codes.PermissionDenied)

	engine, _ := newTestEngine(t, b)
	overview, err := engine.ListSourcesWithTopics(context.Background(), "u1")

	assert.Nil(t, overview)
	require.ErrorIs(t, err, backend.ErrUnauthenticated)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 4, stepErr.Step)
}

func TestCanceledContextStopsPipeline(t *testing.T) {
	b := fake.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine, _ := newTestEngine(t, b)
	_, err := engine.ListRelations(ctx, "u1")

	require.ErrorIs(t, err, backend.ErrUnavailable)
	assert.Equal(t, []string{backend.SourcesGetSources}, b.Calls())
}

// recordingUsers captures the ids passed to GetUsers.
type recordingUsers struct {
	*fake.Backend
	requested []string
}

func (r *recordingUsers) GetUsers(ctx context.Context, in *backend.GetUsersRequest) (*backend.GetUsersResponse, error) {
	r.requested = append([]string(nil), in.UserIDs...)
	return r.Backend.GetUsers(ctx, in)
}

// danglingTopics appends a membership the seeded data cannot resolve.
type danglingTopics struct {
	*fake.Backend
	extra backend.TopicUser
}

func (d *danglingTopics) GetTopicsUsers(ctx context.Context, in *backend.GetTopicsUsersRequest) (*backend.GetTopicsUsersResponse, error) {
	res, err := d.Backend.GetTopicsUsers(ctx, in)
	if err != nil {
		return nil, err
	}
	res.TopicsUsers = append(res.TopicsUsers, d.extra)
	return res, nil
}
