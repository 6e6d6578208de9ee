package domain

// JobStatus tracks a download request through its lifecycle.
type JobStatus string

const (
	JobStatusAccepted  JobStatus = "accepted"
	JobStatusRunning   JobStatus = "running"
	JobStatusPackaging JobStatus = "packaging"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Options carries the optional directives a caller may attach to a download.
// Zero values mean the corresponding flag is not passed to the fetch tool.
type Options struct {
	Filename         string `json:"filename"`
	IsAudioOnly      bool   `json:"isAudioOnly"`
	EmbedThumbnail   bool   `json:"embedThumbnail"`
	EmbedChapter     bool   `json:"embedChapter"`
	EmbedMetadata    bool   `json:"embedMetadata"`
	EmbedSubtitle    bool   `json:"embedSubtitle"`
	SubtitleLanguage string `json:"subtitleLanguage"`
}

// Request is an accepted download request. Immutable after submission.
type Request struct {
	ContentID string   `json:"contentId"`
	FormatID  string   `json:"formatId"`
	Options   Options  `json:"options"`
	Items     []string `json:"items,omitempty"`
}

// IsBatch reports whether the request aggregates multiple items into an archive.
func (r Request) IsBatch() bool {
	return len(r.Items) > 0
}

// EventKind discriminates the payloads forwarded on a job's event channel.
type EventKind int

const (
	// EventProgress carries parsed percentage/size/speed/ETA figures.
	EventProgress EventKind = iota
	// EventStatus relays an opaque status line from the tool or a packaging milestone.
	EventStatus
	// EventComplete is the terminal success event and names the artifact.
	EventComplete
	// EventError is the terminal failure event.
	EventError
)

// Event is one unit of forward progress relayed to the client during a run.
type Event struct {
	Kind     EventKind
	Progress float64
	Size     string
	Speed    string
	ETA      string
	Status   string
	Filename string
	Err      string
}
