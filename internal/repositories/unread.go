package repositories

import (
	"time"

	"messenger-service/internal/models"
)

// UnreadCount derives the unread count for a direct conversation from the
// message log: messages from the other participant created after the viewer's
// read timestamp, or all of them when the viewer has never read. Recomputed
// in full on every listing call; no counter can drift from the log.
func UnreadCount(msgs []models.Message, viewerID int, readAt *time.Time) int {
	count := 0
	for _, m := range msgs {
		if m.SenderID == viewerID {
			continue
		}
		if readAt == nil || m.CreatedAt.After(*readAt) {
			count++
		}
	}
	return count
}
