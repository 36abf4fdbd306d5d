package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cover identifies the aggregate instance a book of events or commands
// belongs to.
type Cover struct {
	Domain        string `json:"domain"`
	Root          string `json:"root"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// EventPage is one event in a batch, in stream order.
type EventPage struct {
	Sequence  uint32    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	Event     Event     `json:"-"`
}

// EventBook is a batch of events emitted by one aggregate instance in a
// single command handling. This service only ever consumes event books; it
// never produces them.
type EventBook struct {
	Cover Cover        `json:"cover"`
	Pages []*EventPage `json:"pages"`
}

// EventTypes returns the distinct event type names present in the book, in
// order of first appearance.
func (b *EventBook) EventTypes() []string {
	seen := make(map[string]bool, len(b.Pages))
	types := make([]string, 0, len(b.Pages))
	for _, page := range b.Pages {
		if page.Event == nil {
			continue
		}
		name := ShortTypeName(page.Event.EventType())
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	return types
}

// CommandPage is one command addressed at a specific sequence slot of the
// destination aggregate's stream.
type CommandPage struct {
	Sequence uint32  `json:"sequence"`
	Command  Command `json:"-"`
}

// CommandBook is a batch of commands addressed to one aggregate instance.
type CommandBook struct {
	Cover Cover          `json:"cover"`
	Pages []*CommandPage `json:"pages"`
}

// ShortTypeName reduces a possibly qualified type identifier such as
// "cardroom.hand.V1_ACTION_TAKEN" to its final dot-separated segment.
func ShortTypeName(typeName string) string {
	if idx := strings.LastIndex(typeName, "."); idx >= 0 {
		return typeName[idx+1:]
	}
	return typeName
}

// HandRoot derives the hand aggregate root for a given table and hand
// number. The derivation is deterministic so the process manager and the
// table sync saga address the same hand instance without coordination.
func HandRoot(tableRoot string, handNumber uint64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/hand/%d", tableRoot, handNumber))).String()
}
