package amqp

import (
	"testing"

	"obras/internal/core"
)

func TestMutationMessageRoundTrip(t *testing.T) {
	msg := NewMutationMessage(core.TableProjects, OpCascade, "p1")
	if msg.Timestamp.IsZero() {
		t.Error("NewMutationMessage should stamp the time")
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := MutationMessageFromJSON(body)
	if err != nil {
		t.Fatalf("MutationMessageFromJSON: %v", err)
	}
	if got.Table != core.TableProjects || got.Op != OpCascade || got.RecordID != "p1" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestMutationMessageFromJSONInvalid(t *testing.T) {
	if _, err := MutationMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("malformed body should fail to parse")
	}
}
