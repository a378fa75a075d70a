package aggregate

import (
	"github.com/bzd-chat/gateway/internal/backend"
)

// fields dereferences required backend fields, keeping the first omission.
type fields struct {
	method string
	err    error
}

func (f *fields) str(v *string, name string) string {
	s, err := backend.Require(v, f.method, name)
	if err != nil && f.err == nil {
		f.err = err
	}
	return s
}

// ProfileOf converts a backend user, failing on any omitted field.
func ProfileOf(u backend.User, method string) (Profile, error) {
	f := fields{method: method}
	p := Profile{
		UserID: f.str(u.UserID, "user_id"),
		Name:   f.str(u.Name, "name"),
		Phone:  f.str(u.Phone, "phone"),
		Abbr:   f.str(u.Abbr, "abbr"),
		Color:  f.str(u.Color, "color"),
	}
	return p, f.err
}

func detailUserOf(u backend.User, method string) (DetailUser, error) {
	f := fields{method: method}
	d := DetailUser{
		UserID: f.str(u.UserID, "user_id"),
		Name:   f.str(u.Name, "name"),
		Abbr:   f.str(u.Abbr, "abbr"),
		Color:  f.str(u.Color, "color"),
	}
	return d, f.err
}

// userIndex maps a user id to its profile.
type userIndex map[string]Profile

func indexUsers(users []backend.User) (userIndex, error) {
	idx := make(userIndex, len(users))
	for _, u := range users {
		p, err := ProfileOf(u, backend.UsersGetUsers)
		if err != nil {
			return nil, err
		}
		idx[p.UserID] = p
	}
	return idx, nil
}

func (idx userIndex) resolve(entity, entityID, userID string) (Profile, error) {
	p, ok := idx[userID]
	if !ok {
		return Profile{}, &JoinError{Entity: entity, EntityID: entityID, Ref: "user", RefID: userID}
	}
	return p, nil
}

// topicIndex maps a topic id to its title record. ids keeps backend order.
type topicIndex struct {
	byID map[string]DetailTopic
	ids  []string
}

func indexTopics(topics []backend.Topic) (*topicIndex, error) {
	idx := &topicIndex{
		byID: make(map[string]DetailTopic, len(topics)),
		ids:  make([]string, 0, len(topics)),
	}
	for _, t := range topics {
		f := fields{method: backend.TopicsGetTopics}
		topic := DetailTopic{
			TopicID: f.str(t.TopicID, "topic_id"),
			Title:   f.str(t.Title, "title"),
		}
		if f.err != nil {
			return nil, f.err
		}
		if _, dup := idx.byID[topic.TopicID]; !dup {
			idx.ids = append(idx.ids, topic.TopicID)
		}
		idx.byID[topic.TopicID] = topic
	}
	return idx, nil
}

// membership is a decoded topic membership record.
type membership struct {
	id      string
	topicID string
	userID  string
}

func membershipsOf(records []backend.TopicUser) ([]membership, error) {
	out := make([]membership, 0, len(records))
	for _, tu := range records {
		f := fields{method: backend.TopicsGetTopicsUsers}
		m := membership{
			id:      f.str(tu.TopicUserID, "topic_user_id"),
			topicID: f.str(tu.TopicID, "topic_id"),
			userID:  f.str(tu.UserID, "user_id"),
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, m)
	}
	return out, nil
}

// idSet is a de-duplicating set that remembers insertion order.
type idSet struct {
	seen map[string]struct{}
	ids  []string
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[string]struct{}), ids: []string{}}
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

func (s *idSet) list() []string {
	return append([]string{}, s.ids...)
}
