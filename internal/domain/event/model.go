package event

import (
	"encoding/json"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
)

// Canonical event types. Events originating in sibling services arrive with
// a "sports." prefix and are normalized to these before dispatch.
const (
	TypeMatchCreated   = "match.created"
	TypeMatchUpdated   = "match.updated"
	TypeMatchCompleted = "match.completed"
	TypeMatchCancelled = "match.cancelled"

	TypeTeamCreated = "team.created"
	TypeTeamUpdated = "team.updated"

	TypeTournamentCreated       = "tournament.created"
	TypeTournamentUpdated       = "tournament.updated"
	TypeTournamentStatusChanged = "tournament.status.changed"
	TypeTournamentRecalculated  = "tournament.recalculated"

	TypeStandingsUpdated  = "standings.updated"
	TypeStatisticsUpdated = "statistics.updated"
)

const crossServicePrefix = "sports."

// Event is the envelope consumed from and published to the message bus.
// Immutable once received; the raw payload is decoded into a typed struct
// at the handler boundary.
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"-"`
}

// NormalizeType strips the cross-service origin prefix so handlers register
// one canonical type string each.
func NormalizeType(eventType string) string {
	eventType = strings.TrimSpace(eventType)
	return strings.TrimPrefix(eventType, crossServicePrefix)
}

// CrossServiceType returns the prefixed form used when publishing derived
// events for consumers in sibling services.
func CrossServiceType(eventType string) string {
	eventType = NormalizeType(eventType)
	if eventType == "" {
		return ""
	}
	return crossServicePrefix + eventType
}

func Decode(raw []byte) (Event, error) {
	var evt Event
	if err := sonic.Unmarshal(raw, &evt); err != nil {
		return Event{}, err
	}
	evt.Type = strings.TrimSpace(evt.Type)
	evt.ReceivedAt = time.Now().UTC()
	return evt, nil
}

func (e Event) Encode() ([]byte, error) {
	return sonic.Marshal(e)
}
