package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionWatch Action = "watch"
	ActionPing  Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// WatchRequest subscribes the client to one bundle's progress stream.
type WatchRequest struct {
	Action   Action `json:"action"`
	BundleID string `json:"bundle_id"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventWatching Event = "watching"
	EventProgress Event = "progress"
	EventPong     Event = "pong"
)

// ProgressStage names the background job a progress event belongs to.
type ProgressStage string

const (
	StageReadQR ProgressStage = "read_qr"
	StagePush   ProgressStage = "push"
)

// ProgressEvent is one tick of a bundle's background processing. It is
// what the workers publish to Redis and what subscribed clients receive,
// so the wire shapes stay identical on both hops.
type ProgressEvent struct {
	Event    Event         `json:"event"`
	BundleID string        `json:"bundle_id"`
	Stage    ProgressStage `json:"stage"`
	Done     int           `json:"done"`
	Total    int           `json:"total"`
	Finished bool          `json:"finished"`
	Error    string        `json:"error,omitempty"`
}

type WatchingResponse struct {
	Event    Event  `json:"event"`
	BundleID string `json:"bundle_id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
