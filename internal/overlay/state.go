package overlay

import (
	"time"

	"github.com/dustin/go-humanize"
)

// State is the application state the overlay renders. It has a single
// writer, the refresh driver's loop; everyone else reads DisplayInfo copies.
type State struct {
	Name        string    // Unused placeholder
	CurrentTime string    // Formatted time of the most recent tick
	Stock       string    // Formatted quote of the most recent successful fetch
	QuoteAt     time.Time // When Stock last changed
	LastError   string    // Most recent fetch failure, cleared on success
}

// DisplayInfo holds the information to display in the overlay
type DisplayInfo struct {
	Time    string  `json:"time"`
	Quote   string  `json:"quote"`
	Updated string  `json:"updated,omitempty"` // e.g. "12 seconds ago"
	Stale   bool    `json:"stale"`
	Error   string  `json:"error,omitempty"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
}

// Display renders s as of now.
func (s *State) Display(now time.Time) DisplayInfo {
	info := DisplayInfo{
		Time:  s.CurrentTime,
		Quote: s.Stock,
		Stale: s.LastError != "",
		Error: s.LastError,
	}
	if !s.QuoteAt.IsZero() {
		info.Updated = humanize.RelTime(s.QuoteAt, now, "ago", "from now")
	}
	return info
}
