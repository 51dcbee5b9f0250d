package models

import "time"

// ConversationType distinguishes two-participant chats from named groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation is a direct or group conversation record. Direct conversations
// carry the two participant references and their read timestamps; group
// conversations carry a name and a creator, with members in a join table.
type Conversation struct {
	ID                   int              `db:"id" json:"id"`
	Type                 ConversationType `db:"type" json:"type"`
	ParticipantOne       *int             `db:"participant_one" json:"participant_one,omitempty"`
	ParticipantTwo       *int             `db:"participant_two" json:"participant_two,omitempty"`
	ParticipantOneReadAt *time.Time       `db:"participant_one_read_at" json:"participant_one_read_at,omitempty"`
	ParticipantTwoReadAt *time.Time       `db:"participant_two_read_at" json:"participant_two_read_at,omitempty"`
	GroupName            *string          `db:"group_name" json:"group_name,omitempty"`
	CreatedBy            *int             `db:"created_by" json:"created_by,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
}

// IsParticipantOne reports the caller's role in a direct conversation.
func (c Conversation) IsParticipantOne(userID int) bool {
	return c.ParticipantOne != nil && *c.ParticipantOne == userID
}

// HasParticipant reports whether the user is one of the two direct participants.
func (c Conversation) HasParticipant(userID int) bool {
	return c.IsParticipantOne(userID) ||
		(c.ParticipantTwo != nil && *c.ParticipantTwo == userID)
}

// ReadTimeFor returns the caller's own read timestamp in a direct conversation.
func (c Conversation) ReadTimeFor(userID int) *time.Time {
	if c.IsParticipantOne(userID) {
		return c.ParticipantOneReadAt
	}
	return c.ParticipantTwoReadAt
}

// ConversationSummary is the listing view of a conversation: the only fields
// a presentation layer may assume exist.
type ConversationSummary struct {
	ID              int              `json:"id"`
	Type            ConversationType `json:"type"`
	DisplayName     string           `json:"display_name"`
	Subtitle        string           `json:"subtitle"`
	OtherUser       *Profile         `json:"other_user,omitempty"`
	MemberProfiles  []Profile        `json:"member_profiles,omitempty"`
	MemberCount     int              `json:"member_count"`
	LastMessage     string           `json:"last_message"`
	LastMessageTime time.Time        `json:"last_message_time"`
	UnreadCount     int              `json:"unread_count"`
	CreatedAt       time.Time        `json:"created_at"`
}
