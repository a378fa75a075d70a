package aggregate

// Profile is the full public record of a user.
type Profile struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Abbr   string `json:"abbr"`
	Color  string `json:"color"`
}

// Source is a source joined to the profile of the user it references.
type Source struct {
	SourceID string  `json:"source_id"`
	User     Profile `json:"user"`
}

// Contact is a contact joined to the profile of the user it references.
type Contact struct {
	ContactID   string  `json:"contact_id"`
	ContactName string  `json:"contact_name"`
	User        Profile `json:"user"`
}

// Relations is the caller's sources listing. Both lists keep backend order.
type Relations struct {
	Sources  []Source  `json:"sources"`
	Contacts []Contact `json:"contacts"`
}

// DetailUser omits the phone number, which the detail view does not expose.
type DetailUser struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Abbr   string `json:"abbr"`
	Color  string `json:"color"`
}

type DetailTopic struct {
	TopicID string `json:"topic_id"`
	Title   string `json:"title"`
}

// SourceDetail is one source of the caller with the topics its user owns
// and participates in.
type SourceDetail struct {
	SourceID string        `json:"source_id"`
	User     DetailUser    `json:"user"`
	Topics   []DetailTopic `json:"topics"`
}

type TopicUserRef struct {
	TopicUserID string `json:"topic_user_id"`
}

// SourceTopic is a topic the source's user participates in. TopicUser is the
// caller's own membership in it, or nil when the caller is not a member.
type SourceTopic struct {
	TopicID   string        `json:"topic_id"`
	Title     string        `json:"title"`
	TopicUser *TopicUserRef `json:"topic_user"`
}

type SourceOverview struct {
	SourceID string        `json:"source_id"`
	User     Profile       `json:"user"`
	Topics   []SourceTopic `json:"topics"`
}

// Overview is the sources listing enriched with topic participation.
type Overview struct {
	Sources []SourceOverview `json:"sources"`
}
