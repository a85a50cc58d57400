package domain

import "time"

// HandlerTag identifies the domain handler that answers a message.
type HandlerTag string

const (
	TagNutrition       HandlerTag = "nutrition"
	TagFitness         HandlerTag = "fitness"
	TagResearch        HandlerTag = "research"
	TagPersonalization HandlerTag = "personalization"

	// TagError is only ever emitted on failed responses; it is never routed to.
	TagError HandlerTag = "error"
)

// HandlerTags lists every routable tag.
var HandlerTags = []HandlerTag{TagNutrition, TagFitness, TagResearch, TagPersonalization}

// Valid reports whether t is one of the routable tags.
func (t HandlerTag) Valid() bool {
	switch t {
	case TagNutrition, TagFitness, TagResearch, TagPersonalization:
		return true
	}
	return false
}

// ConversationEntry is a single persisted conversation turn. Entries are
// immutable once written.
type ConversationEntry struct {
	Timestamp     time.Time  `json:"timestamp"`
	UserMessage   string     `json:"user_message"`
	AgentResponse string     `json:"agent_response"`
	Agent         HandlerTag `json:"agent"`
}
