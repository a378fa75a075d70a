package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bzd-chat/gateway/internal/backend"
)

// Engine runs the aggregation pipelines against the shared backend clients.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	users   backend.UsersService
	sources backend.SourcesService
	topics  backend.TopicsService
	log     logrus.FieldLogger
}

// NewEngine creates an engine. A nil logger falls back to the standard one.
func NewEngine(users backend.UsersService, sources backend.SourcesService, topics backend.TopicsService, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		users:   users,
		sources: sources,
		topics:  topics,
		log:     log,
	}
}

// pipeline numbers and logs the dependent calls of one view.
type pipeline struct {
	name string
	step int
	log  logrus.FieldLogger
}

func (e *Engine) pipeline(name, caller string) *pipeline {
	return &pipeline{
		name: name,
		log: e.log.WithFields(logrus.Fields{
			"pipeline": name,
			"caller":   caller,
		}),
	}
}

// do runs one step. A failed step ends the pipeline: the error is returned
// wrapped in a *StepError and no further steps may run.
func (p *pipeline) do(ctx context.Context, method string, call func(context.Context) error) error {
	p.step++
	log := p.log.WithFields(logrus.Fields{
		"step":   p.step,
		"method": method,
	})

	start := time.Now()
	err := call(ctx)
	latency := time.Since(start)

	if err != nil {
		log.WithError(err).WithField("latency", latency).Debug("pipeline step failed")
		return &StepError{Pipeline: p.name, Step: p.step, Method: method, Err: err}
	}

	log.WithField("latency", latency).Debug("pipeline step completed")
	return nil
}

// fail reports a fault found while joining step results.
func (p *pipeline) fail(err error) error {
	p.log.WithError(err).WithField("step", p.step).Debug("pipeline join failed")
	return fmt.Errorf("%s: %w", p.name, err)
}

// ListRelations returns the caller's sources and contacts, each joined to the
// profile of the user it references.
func (e *Engine) ListRelations(ctx context.Context, caller string) (*Relations, error) {
	p := e.pipeline("list_relations", caller)
	rel, _, err := e.relations(ctx, p, caller)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// relations runs the sources-listing steps. It also returns the referenced
// user ids: source users first, then contact users, in first-seen order.
func (e *Engine) relations(ctx context.Context, p *pipeline, caller string) (*Relations, []string, error) {
	var listed *backend.GetSourcesResponse
	err := p.do(ctx, backend.SourcesGetSources, func(ctx context.Context) error {
		res, err := e.sources.GetSources(ctx, &backend.GetSourcesRequest{UserID: backend.String(caller)})
		listed = res
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	type ref struct{ id, userID, name string }
	sources := make([]ref, 0, len(listed.Sources))
	contacts := make([]ref, 0, len(listed.Contacts))
	related := newIDSet()

	for _, s := range listed.Sources {
		f := fields{method: backend.SourcesGetSources}
		r := ref{
			id:     f.str(s.SourceID, "source_id"),
			userID: f.str(s.SourceUserID, "source_user_id"),
		}
		if f.err != nil {
			return nil, nil, p.fail(f.err)
		}
		sources = append(sources, r)
		related.add(r.userID)
	}
	for _, c := range listed.Contacts {
		f := fields{method: backend.SourcesGetSources}
		r := ref{
			id:     f.str(c.ContactID, "contact_id"),
			userID: f.str(c.ContactUserID, "contact_user_id"),
			name:   f.str(c.Name, "name"),
		}
		if f.err != nil {
			return nil, nil, p.fail(f.err)
		}
		contacts = append(contacts, r)
		related.add(r.userID)
	}

	var users userIndex
	err = p.do(ctx, backend.UsersGetUsers, func(ctx context.Context) error {
		res, err := e.users.GetUsers(ctx, &backend.GetUsersRequest{UserIDs: related.list()})
		if err != nil {
			return err
		}
		users, err = indexUsers(res.Users)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	rel := &Relations{
		Sources:  make([]Source, 0, len(sources)),
		Contacts: make([]Contact, 0, len(contacts)),
	}
	for _, s := range sources {
		user, err := users.resolve("source", s.id, s.userID)
		if err != nil {
			return nil, nil, p.fail(err)
		}
		rel.Sources = append(rel.Sources, Source{SourceID: s.id, User: user})
	}
	for _, c := range contacts {
		user, err := users.resolve("contact", c.id, c.userID)
		if err != nil {
			return nil, nil, p.fail(err)
		}
		rel.Contacts = append(rel.Contacts, Contact{ContactID: c.id, ContactName: c.name, User: user})
	}

	return rel, related.list(), nil
}

// SourceDetail returns the caller's source for target together with the
// topics target owns and is a member of.
func (e *Engine) SourceDetail(ctx context.Context, caller, target string) (*SourceDetail, error) {
	p := e.pipeline("source_detail", caller)

	var sourceID, sourceUserID string
	err := p.do(ctx, backend.SourcesGetSource, func(ctx context.Context) error {
		res, err := e.sources.GetSource(ctx, &backend.GetSourceRequest{
			UserID:       backend.String(caller),
			SourceUserID: backend.String(target),
		})
		if err != nil {
			return err
		}
		source, err := backend.Require(res.Source, backend.SourcesGetSource, "source")
		if err != nil {
			return err
		}
		f := fields{method: backend.SourcesGetSource}
		sourceID = f.str(source.SourceID, "source_id")
		sourceUserID = f.str(source.SourceUserID, "source_user_id")
		return f.err
	})
	if err != nil {
		return nil, err
	}

	var user DetailUser
	err = p.do(ctx, backend.UsersGetUser, func(ctx context.Context) error {
		res, err := e.users.GetUser(ctx, &backend.GetUserRequest{UserID: backend.String(sourceUserID)})
		if err != nil {
			return err
		}
		u, err := backend.Require(res.User, backend.UsersGetUser, "user")
		if err != nil {
			return err
		}
		user, err = detailUserOf(u, backend.UsersGetUser)
		return err
	})
	if err != nil {
		return nil, err
	}

	var topics *topicIndex
	err = p.do(ctx, backend.TopicsGetTopics, func(ctx context.Context) error {
		res, err := e.topics.GetTopics(ctx, &backend.GetTopicsRequest{UserIDs: []string{sourceUserID}})
		if err != nil {
			return err
		}
		topics, err = indexTopics(res.Topics)
		return err
	})
	if err != nil {
		return nil, err
	}

	var members []membership
	err = p.do(ctx, backend.TopicsGetTopicsUsers, func(ctx context.Context) error {
		res, err := e.topics.GetTopicsUsers(ctx, &backend.GetTopicsUsersRequest{
			TopicIDs: topics.ids,
			UserIDs:  []string{sourceUserID},
		})
		if err != nil {
			return err
		}
		members, err = membershipsOf(res.TopicsUsers)
		return err
	})
	if err != nil {
		return nil, err
	}

	detail := &SourceDetail{
		SourceID: sourceID,
		User:     user,
		Topics:   make([]DetailTopic, 0, len(members)),
	}
	for _, m := range members {
		if m.userID != sourceUserID {
			return nil, p.fail(&JoinError{Entity: "topic_user", EntityID: m.id, Ref: "user", RefID: m.userID})
		}
		topic, ok := topics.byID[m.topicID]
		if !ok {
			return nil, p.fail(&JoinError{Entity: "topic_user", EntityID: m.id, Ref: "topic", RefID: m.topicID})
		}
		detail.Topics = append(detail.Topics, topic)
	}

	return detail, nil
}

// ListSourcesWithTopics extends ListRelations with topic participation: every
// source lists the topics its user is a member of, each carrying the
// caller's own membership when there is one.
func (e *Engine) ListSourcesWithTopics(ctx context.Context, caller string) (*Overview, error) {
	p := e.pipeline("list_sources_with_topics", caller)

	rel, related, err := e.relations(ctx, p, caller)
	if err != nil {
		return nil, err
	}

	scope := newIDSet()
	scope.add(caller)
	for _, id := range related {
		scope.add(id)
	}

	var topics *topicIndex
	err = p.do(ctx, backend.TopicsGetTopics, func(ctx context.Context) error {
		res, err := e.topics.GetTopics(ctx, &backend.GetTopicsRequest{UserIDs: scope.list()})
		if err != nil {
			return err
		}
		topics, err = indexTopics(res.Topics)
		return err
	})
	if err != nil {
		return nil, err
	}

	var members []membership
	err = p.do(ctx, backend.TopicsGetTopicsUsers, func(ctx context.Context) error {
		res, err := e.topics.GetTopicsUsers(ctx, &backend.GetTopicsUsersRequest{
			TopicIDs: topics.ids,
			UserIDs:  scope.list(),
		})
		if err != nil {
			return err
		}
		members, err = membershipsOf(res.TopicsUsers)
		return err
	})
	if err != nil {
		return nil, err
	}

	memberOf := make(map[string]*idSet) // user id -> topic ids, backend order
	own := make(map[string]string)      // topic id -> caller's membership id
	for _, m := range members {
		if _, ok := topics.byID[m.topicID]; !ok {
			return nil, p.fail(&JoinError{Entity: "topic_user", EntityID: m.id, Ref: "topic", RefID: m.topicID})
		}
		if m.userID == caller {
			if _, seen := own[m.topicID]; !seen {
				own[m.topicID] = m.id
			}
		}
		if memberOf[m.userID] == nil {
			memberOf[m.userID] = newIDSet()
		}
		memberOf[m.userID].add(m.topicID)
	}

	overview := &Overview{Sources: make([]SourceOverview, 0, len(rel.Sources))}
	for _, s := range rel.Sources {
		var topicIDs []string
		if set := memberOf[s.User.UserID]; set != nil {
			topicIDs = set.list()
		}
		joined := make([]SourceTopic, 0, len(topicIDs))
		for _, topicID := range topicIDs {
			topic := topics.byID[topicID]
			st := SourceTopic{TopicID: topic.TopicID, Title: topic.Title}
			if id, ok := own[topicID]; ok {
				st.TopicUser = &TopicUserRef{TopicUserID: id}
			}
			joined = append(joined, st)
		}
		overview.Sources = append(overview.Sources, SourceOverview{
			SourceID: s.SourceID,
			User:     s.User,
			Topics:   joined,
		})
	}

	return overview, nil
}
