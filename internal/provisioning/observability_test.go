package provisioning

import (
	"errors"
	"maps"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingObserver collects events from itself and every observer derived
// through WithFields.
type recordingObserver struct {
	log    *eventLog
	fields map[string]string
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{log: &eventLog{}, fields: map[string]string{}}
}

func (o *recordingObserver) Event(event Event) {
	merged := maps.Clone(o.fields)
	maps.Copy(merged, event.Fields)
	event.Fields = merged

	o.log.mu.Lock()
	defer o.log.mu.Unlock()
	o.log.events = append(o.log.events, event)
}

func (o *recordingObserver) WithFields(fields map[string]string) Observer {
	merged := maps.Clone(o.fields)
	maps.Copy(merged, fields)
	return &recordingObserver{log: o.log, fields: merged}
}

func (o *recordingObserver) types() []EventType {
	o.log.mu.Lock()
	defer o.log.mu.Unlock()
	out := make([]EventType, 0, len(o.log.events))
	for _, e := range o.log.events {
		out = append(out, e.Type)
	}
	return out
}

func (o *recordingObserver) ofType(t EventType) []Event {
	o.log.mu.Lock()
	defer o.log.mu.Unlock()
	var out []Event
	for _, e := range o.log.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func captureLogger() (*[]string, *LogObserver) {
	lines := &[]string{}
	log := funcr.New(func(prefix, args string) {
		*lines = append(*lines, args)
	}, funcr.Options{})
	return lines, NewLogObserver(log)
}

func TestLogObserver_Event(t *testing.T) {
	t.Parallel()
	lines, obs := captureLogger()

	obs.WithFields(map[string]string{"job": "job-1"}).Event(Event{
		Type:     EventNodeRecorded,
		Phase:    "provision",
		Resource: "abc123.example.com",
		Message:  "node recorded",
		Fields:   map[string]string{"group": "ssh_nodes"},
	})

	require.Len(t, *lines, 1)
	line := (*lines)[0]
	assert.Contains(t, line, `"msg"="node recorded"`)
	assert.Contains(t, line, `"event"="node.recorded"`)
	assert.Contains(t, line, `"resource"="abc123.example.com"`)
	assert.Less(t, strings.Index(line, `"group"`), strings.Index(line, `"job"`), "fields are sorted")
}

func TestLogObserver_ErrorEvent(t *testing.T) {
	t.Parallel()
	lines, obs := captureLogger()

	LogPhaseFailed(obs, "teardown", errors.New("boom"))

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], `"error"="boom"`)
	assert.Contains(t, (*lines)[0], `"phase"="teardown"`)
}

func TestLogObserver_WithFieldsDoesNotLeak(t *testing.T) {
	t.Parallel()
	lines, obs := captureLogger()

	_ = obs.WithFields(map[string]string{"job": "job-1"})
	LogPhaseStart(obs, "provision")

	require.Len(t, *lines, 1)
	assert.NotContains(t, (*lines)[0], "job-1")
}

func TestLogPhaseHelpers(t *testing.T) {
	t.Parallel()
	obs := newRecordingObserver()

	LogPhaseStart(obs, "provision")
	LogNodeRecorded(obs, "provision", "a.example.com", "ssh_nodes")
	LogNodeRemoved(obs, "teardown", "a.example.com")
	LogPhaseComplete(obs, "provision", 1500*time.Microsecond)

	assert.Equal(t, []EventType{EventPhaseStarted, EventNodeRecorded, EventNodeRemoved, EventPhaseCompleted}, obs.types())
	assert.Equal(t, "ssh_nodes", obs.ofType(EventNodeRecorded)[0].Fields["group"])
	assert.Equal(t, "completed in 2ms", obs.ofType(EventPhaseCompleted)[0].Message)
}
