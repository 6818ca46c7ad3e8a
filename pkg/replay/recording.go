// Package replay records a request/response cycle — the inbound
// request, every dependency fetch, and every section sent — for local
// debugging, and diffs a fresh replay against a saved recording.
//
// Grounded on original_source/crates/edge-observability/src/
// replay.rs (read in full).
package replay

import (
	"fmt"
	"time"

	"github.com/edgerender/corestream/pkg/metrics"
	"github.com/edgerender/corestream/pkg/utils"
)

// CurrentVersion is the recording format version this package writes
// and reads.
const CurrentVersion = 1

// RecordedRequest is the inbound request that triggered a recording.
type RecordedRequest struct {
	RequestID string            `json:"request_id"`
	Method    string            `json:"method"`
	Path      string            `json:"path"`
	Query     string            `json:"query,omitempty"`
	Headers   map[string]string `json:"headers"`
	Body      []byte            `json:"body,omitempty"`
}

// RecordedDependency is one dependency fetch captured during the
// request.
type RecordedDependency struct {
	Tag        string            `json:"tag"`
	URL        string            `json:"url"`
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
	DurationUS int64             `json:"duration_us"`
}

// RecordedSection is one section captured during streaming.
type RecordedSection struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	SentAtUS int64  `json:"sent_at_us"`
}

// Recording is a complete capture of one request/response cycle.
type Recording struct {
	Version         int                     `json:"version"`
	Timestamp       string                  `json:"timestamp"`
	Request         RecordedRequest         `json:"request"`
	Dependencies    []RecordedDependency    `json:"dependencies"`
	Sections        []RecordedSection       `json:"sections"`
	ResponseStatus  int                     `json:"response_status"`
	ResponseHeaders map[string]string       `json:"response_headers"`
	Metrics         *metrics.MetricSnapshot `json:"metrics,omitempty"`
}

// ToJSON renders the recording as indented JSON, matching the Rust
// reference's to_json (serde_json::to_string_pretty).
func (r Recording) ToJSON() (string, error) {
	data, err := utils.MarshalJSON(r)
	if err != nil {
		return "", fmt.Errorf("marshal recording: %w", err)
	}
	pretty, err := utils.PrettyJSON(data)
	if err != nil {
		return "", fmt.Errorf("format recording: %w", err)
	}
	return string(pretty), nil
}

// RecordingFromJSON parses a recording previously produced by ToJSON.
func RecordingFromJSON(data string) (Recording, error) {
	var r Recording
	if err := utils.UnmarshalJSON([]byte(data), &r); err != nil {
		return Recording{}, fmt.Errorf("unmarshal recording: %w", err)
	}
	return r, nil
}

// Recorder accumulates a request's dependency fetches and sections as
// they happen, to be finalized into a Recording once the response is
// complete.
type Recorder struct {
	request      RecordedRequest
	dependencies []RecordedDependency
	sections     []RecordedSection
	start        time.Time
}

// NewRecorder starts a recorder for one inbound request.
func NewRecorder(requestID, method, path, query string, headers map[string]string, body []byte) *Recorder {
	return &Recorder{
		request: RecordedRequest{
			RequestID: requestID,
			Method:    method,
			Path:      path,
			Query:     query,
			Headers:   headers,
			Body:      body,
		},
		start: time.Now(),
	}
}

// RecordDependency appends a completed dependency fetch.
func (r *Recorder) RecordDependency(tag, url string, statusCode int, headers map[string]string, body []byte, duration time.Duration) {
	r.dependencies = append(r.dependencies, RecordedDependency{
		Tag:        tag,
		URL:        url,
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
		DurationUS: duration.Microseconds(),
	})
}

// RecordSection appends a section sent during streaming, timestamped
// relative to the recorder's start.
func (r *Recorder) RecordSection(name, content string) {
	r.sections = append(r.sections, RecordedSection{
		Name:     name,
		Content:  content,
		SentAtUS: time.Since(r.start).Microseconds(),
	})
}

// Finalize produces the completed Recording.
func (r *Recorder) Finalize(responseStatus int, responseHeaders map[string]string, snapshot *metrics.MetricSnapshot) Recording {
	return Recording{
		Version:         CurrentVersion,
		Timestamp:       fmt.Sprintf("%d", time.Now().Unix()),
		Request:         r.request,
		Dependencies:    r.dependencies,
		Sections:        r.sections,
		ResponseStatus:  responseStatus,
		ResponseHeaders: responseHeaders,
		Metrics:         snapshot,
	}
}

// Player replays a saved Recording for local debugging: it answers
// dependency-fetch lookups from the recording instead of hitting the
// network, so a request can be reproduced byte-for-byte offline.
type Player struct {
	recording Recording
}

// NewPlayer loads a recording for replay.
func NewPlayer(recording Recording) *Player {
	return &Player{recording: recording}
}

// PlayerFromJSON loads a recording from its JSON form.
func PlayerFromJSON(data string) (*Player, error) {
	r, err := RecordingFromJSON(data)
	if err != nil {
		return nil, err
	}
	return NewPlayer(r), nil
}

func (p *Player) Request() RecordedRequest { return p.recording.Request }

// Dependency looks up a recorded dependency fetch by tag and URL.
func (p *Player) Dependency(tag, url string) (RecordedDependency, bool) {
	for _, d := range p.recording.Dependencies {
		if d.Tag == tag && d.URL == url {
			return d, true
		}
	}
	return RecordedDependency{}, false
}

func (p *Player) Dependencies() []RecordedDependency { return p.recording.Dependencies }
func (p *Player) Sections() []RecordedSection        { return p.recording.Sections }
func (p *Player) Metrics() *metrics.MetricSnapshot   { return p.recording.Metrics }
func (p *Player) ResponseStatus() int                { return p.recording.ResponseStatus }
