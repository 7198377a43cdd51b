package models

import "time"

// Session is a connected client of a channel together with the metadata
// derived when it connected.
type Session struct {
	ID          string     `json:"id"`
	Channel     string     `json:"channel"`
	Sender      SenderData `json:"sender"`
	ConnectedAt time.Time  `json:"connected_at"`
}
