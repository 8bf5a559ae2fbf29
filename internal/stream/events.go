package stream

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// EventKind classifies one stream line.
type EventKind int

const (
	// EventRaw: the line was not a recognized JSON event. Raw holds it
	// verbatim.
	EventRaw EventKind = iota
	// EventInit: the initialization event, the first point where the run's
	// identity (agent id at minimum) becomes known.
	EventInit
	// EventResult: the terminal accounting event.
	EventResult
	// EventOther: valid JSON with a type we relay only in verbose mode.
	EventOther
)

// Event is one interpreted line of agent output. Identity fields are set
// whenever they appear, regardless of kind, so the supervisor can capture
// them opportunistically mid-stream.
type Event struct {
	Kind    EventKind
	Type    string
	Subtype string
	Raw     []byte

	AgentID        string
	ConversationID string
	Model          string

	// Result fields, EventResult only.
	IsError    bool
	DurationMS int64
	NumTurns   int
	Usage      json.RawMessage
}

// envelope is the common shape of every structured line.
type envelope struct {
	Type           string          `json:"type"`
	Subtype        string          `json:"subtype"`
	AgentID        string          `json:"agent_id"`
	ConversationID string          `json:"conversation_id"`
	Model          string          `json:"model"`
	IsError        bool            `json:"is_error"`
	DurationMS     int64           `json:"duration_ms"`
	NumTurns       int             `json:"num_turns"`
	Usage          json.RawMessage `json:"usage"`
}

// Interpret parses one line. Lines that fail to parse are run through a JSON
// repair pass (agents occasionally emit truncated or near-JSON lines) before
// being declared raw.
func Interpret(line []byte) Event {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		repaired, repErr := jsonrepair.JSONRepair(string(line))
		if repErr != nil || json.Unmarshal([]byte(repaired), &env) != nil {
			return Event{Kind: EventRaw, Raw: line}
		}
	}
	if env.Type == "" {
		return Event{Kind: EventRaw, Raw: line}
	}

	ev := Event{
		Kind:           EventOther,
		Type:           env.Type,
		Subtype:        env.Subtype,
		Raw:            line,
		AgentID:        env.AgentID,
		ConversationID: env.ConversationID,
		Model:          env.Model,
	}

	switch {
	case env.Type == "system" && env.Subtype == "init":
		ev.Kind = EventInit
	case env.Type == "result":
		ev.Kind = EventResult
		ev.IsError = env.IsError
		ev.DurationMS = env.DurationMS
		ev.NumTurns = env.NumTurns
		ev.Usage = env.Usage
	}

	return ev
}
