package model

import "time"

// StatusChangeEvent is published after a document transition commits.
type StatusChangeEvent struct {
	DocumentID string         `json:"document_id"`
	LineageID  string         `json:"lineage_id"`
	Department string         `json:"department"`
	From       DocumentStatus `json:"from"`
	To         DocumentStatus `json:"to"`
	ChangedAt  time.Time      `json:"changed_at"`
}
