package models

import "time"

// Reaction is a single per-user, per-emoji toggle row. The store enforces at
// most one row per (message, user, emoji) triple.
type Reaction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReactionSummary aggregates all rows for one emoji on one message.
type ReactionSummary struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

// SummarizeReactions groups reaction rows by emoji, counting reactors and
// marking emojis the viewer reacted with. A zero viewerID (unauthenticated)
// yields reacted=false everywhere. Emojis keep first-seen order.
func SummarizeReactions(reactions []Reaction, viewerID int) []ReactionSummary {
	byEmoji := map[string]int{}
	summaries := make([]ReactionSummary, 0, len(reactions))
	for _, r := range reactions {
		idx, ok := byEmoji[r.Emoji]
		if !ok {
			idx = len(summaries)
			byEmoji[r.Emoji] = idx
			summaries = append(summaries, ReactionSummary{Emoji: r.Emoji})
		}
		summaries[idx].Count++
		if viewerID != 0 && r.UserID == viewerID {
			summaries[idx].Reacted = true
		}
	}
	return summaries
}
