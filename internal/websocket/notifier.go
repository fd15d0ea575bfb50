package websocket

import "github.com/vrsandeep/mango-catalog/internal/models"

// Notifier publishes catalog events to connected clients. Events carry ids
// and names only.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) SeriesAdded(libraryID, seriesID int64, name string) {
	n.hub.BroadcastJSON(models.Event{Type: models.EventSeriesAdded, LibraryID: libraryID, SeriesID: seriesID, SeriesName: name})
}

func (n *Notifier) SeriesRemoved(libraryID, seriesID int64, name string) {
	n.hub.BroadcastJSON(models.Event{Type: models.EventSeriesRemoved, LibraryID: libraryID, SeriesID: seriesID, SeriesName: name})
}

func (n *Notifier) ScanComplete(libraryID int64) {
	n.hub.BroadcastJSON(models.Event{Type: models.EventScanComplete, LibraryID: libraryID})
}
