package model

import "time"

// LinkEvent is a lifecycle notification published for a link.
type LinkEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Code      string    `json:"code,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Clicks    int       `json:"clicks,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Count     int64     `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventLinkCreated      = "link.created"
	EventLinkClicked      = "link.clicked"
	EventLinkDisabled     = "link.disabled"
	EventLinkDeleted      = "link.deleted"
	EventLinkLimitUpdated = "link.limit_updated"
	EventLinksPurged      = "links.purged"
)

const (
	LinkStreamName     = "LINKS"
	LinkStreamSubjects = "links.>"
	LinkSubjectPrefix  = "links.events."
	LinkStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// Subject returns the JetStream subject the event is published on.
func (e LinkEvent) Subject() string {
	return LinkSubjectPrefix + e.Type
}
