package models

type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	ItemID   int64   `json:"item_id"`
	Status   string  `json:"status"` // e.g. "in_progress", "completed", "failed"
	// Optional fields for more detailed updates
	Done bool `json:"done"`
}

// EventType names a catalog notification.
type EventType string

const (
	EventSeriesAdded   EventType = "series_added"
	EventSeriesRemoved EventType = "series_removed"
	EventScanComplete  EventType = "scan_complete"
)

// Event is broadcast to connected clients after a chunk commits. It only
// carries ids and names; clients fetch anything else they need.
type Event struct {
	Type       EventType `json:"type"`
	LibraryID  int64     `json:"library_id"`
	SeriesID   int64     `json:"series_id,omitempty"`
	SeriesName string    `json:"series_name,omitempty"`
}
