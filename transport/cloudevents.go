package transport

import (
	"encoding/json"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// ToCloudEvent renders an Envelope as a CloudEvents Event, JSON-encoding the
// payload into the event's data. eventType populates the CloudEvents type
// context attribute and env.Source populates the source attribute.
func ToCloudEvent[T any](env Envelope[T], eventType string) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetID(env.ID)
	e.SetSource(env.Source)
	e.SetType(eventType)
	e.SetTime(env.Timestamp)
	e.SetExtension("correlationid", env.CorrelationID)
	if err := e.SetData(cloudevents.ApplicationJSON, env.Payload); err != nil {
		return cloudevents.Event{}, err
	}
	return e, nil
}

// FromCloudEvent reconstructs an Envelope[T] from a CloudEvents Event,
// JSON-decoding its data into T.
func FromCloudEvent[T any](e cloudevents.Event) (Envelope[T], error) {
	var payload T
	if err := json.Unmarshal(e.Data(), &payload); err != nil {
		return Envelope[T]{}, err
	}
	correlationID, _ := e.Extensions()["correlationid"].(string)
	ts := e.Time()
	if ts.IsZero() {
		ts = time.Now()
	}
	return Envelope[T]{
		ID:            e.ID(),
		CorrelationID: correlationID,
		Source:        e.Source(),
		Timestamp:     ts,
		Payload:       payload,
	}, nil
}
