package messages

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/nrawrx3/uno"
)

// Request bodies of the table server. Player indices are seat numbers, card indices are
// positions in that player's hand as listed by the snapshot.

type PlayCardRequest struct {
	Player int `json:"player"`
	Card   int `json:"card"`
}

type DrawCardRequest struct {
	Player int `json:"player"`
}

type WildColorRequest struct {
	Color string `json:"color"`
}

// CommandRequest carries one console command line, e.g. "play 3" or "color red".
type CommandRequest struct {
	Line string `json:"line"`
}

// EventMessage is what the server pushes to websocket subscribers. Name is the
// uno.GameEvent name and Event the event itself.
type EventMessage struct {
	Name  string        `json:"name"`
	Event uno.GameEvent `json:"event"`
}

func NewEventMessage(event uno.GameEvent) EventMessage {
	return EventMessage{Name: event.GameEventName(), Event: event}
}

// IncomingEventMessage is the decoding side of EventMessage. Event is left raw since the
// concrete type depends on Name.
type IncomingEventMessage struct {
	Name  string          `json:"name"`
	Event json.RawMessage `json:"event"`
}

// DecodeEvent returns the concrete uno.GameEvent carried by the message.
func (msg *IncomingEventMessage) DecodeEvent() (uno.GameEvent, error) {
	var event uno.GameEvent
	switch msg.Name {
	case uno.Snapshot{}.GameEventName():
		event = &uno.Snapshot{}
	case uno.RoundOverEvent{}.GameEventName():
		event = &uno.RoundOverEvent{}
	case uno.GameOverEvent{}.GameEventName():
		event = &uno.GameOverEvent{}
	case uno.WildColorRequest{}.GameEventName():
		event = &uno.WildColorRequest{}
	default:
		return nil, errors.New("unknown event name: " + msg.Name)
	}
	if err := json.Unmarshal(msg.Event, event); err != nil {
		return nil, err
	}
	return event, nil
}

type UnwrappedErrorPayload struct {
	Errors []string `json:"errors"`
}

func (payload *UnwrappedErrorPayload) Add(err error) {
	if payload.Errors == nil {
		payload.Errors = make([]string, 0, 4)
	}
	payload.Errors = append(payload.Errors, err.Error())
	for {
		err = errors.Unwrap(err)
		if err == nil {
			break
		}
		payload.Errors = append(payload.Errors, err.Error())
	}
}

// WriteErrorPayload writes the status code followed by the unwrapped error chain.
func WriteErrorPayload(w http.ResponseWriter, statusCode int, err error) {
	payload := UnwrappedErrorPayload{}
	payload.Add(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(&payload)
}

func WriteJSON(w http.ResponseWriter, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// DecodeJSON rejects unknown fields so that a misspelled key is reported instead of
// silently zeroed.
func DecodeJSON(r io.Reader, v interface{}) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func MustJSONReader(v interface{}) io.Reader {
	var b bytes.Buffer
	err := json.NewEncoder(&b).Encode(v)
	if err != nil {
		log.Panicf("failed to encode %T as json: %s", v, err)
	}
	return &b
}
