package voice

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one finalized conversation entry. Voice turns produce USER and
// MODEL messages from accumulated transcripts; lifecycle status and errors
// surface as SYSTEM messages.
type Message struct {
	Role Role
	Text string
	At   time.Time
}
