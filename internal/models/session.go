package models

import (
	"transitmap.onebusaway.org/internal/render"
	"transitmap.onebusaway.org/internal/session"
)

// SessionEntry is the state of one viewer's map as returned after every
// session request.
type SessionEntry struct {
	SessionID string             `json:"sessionId"`
	Date      string             `json:"date"`
	Time      string             `json:"time"`
	Selection *session.Selection `json:"selection"`
	LineMode  bool               `json:"lineMode"`
	Scene     render.Snapshot    `json:"scene"`
}

func NewSessionEntry(id string, state *session.State, scene render.Snapshot) SessionEntry {
	date, clock := state.DateTime()
	entry := SessionEntry{
		SessionID: id,
		Date:      date,
		Time:      clock,
		LineMode:  state.LineMode(),
		Scene:     scene,
	}
	if sel, ok := state.Selection(); ok {
		entry.Selection = &sel
	}
	return entry
}
