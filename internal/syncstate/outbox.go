// Package syncstate models the client-side optimistic send pipeline: a
// composed message moves through Draft → Sending → Sent | Failed, and a
// failed send keeps its content for exactly one manual retry. Confirmed
// server state is reconciled in via live query results.
package syncstate

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"messenger-service/internal/models"
)

// SendState is the lifecycle state of an outgoing message.
type SendState string

const (
	StateDraft   SendState = "draft"
	StateSending SendState = "sending"
	StateSent    SendState = "sent"
	StateFailed  SendState = "failed"
)

// maxAttempts caps sends at the original attempt plus one manual retry.
const maxAttempts = 2

var (
	ErrUnknownMessage    = errors.New("unknown outgoing message")
	ErrInvalidTransition = errors.New("invalid send state transition")
	ErrRetryExhausted    = errors.New("send retry exhausted")
)

// OutgoingMessage is one optimistic message held locally until the server
// confirms it.
type OutgoingMessage struct {
	LocalID        string
	ConversationID int
	Content        string
	State          SendState
	Attempts       int
	ServerID       int
	ComposedAt     time.Time
}

// Outbox tracks optimistic outgoing messages across conversations.
type Outbox struct {
	mu      sync.Mutex
	pending map[string]*OutgoingMessage
	now     func() time.Time
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		pending: make(map[string]*OutgoingMessage),
		now:     time.Now,
	}
}

// Compose registers a new draft and returns its snapshot.
func (o *Outbox) Compose(conversationID int, content string) OutgoingMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg := &OutgoingMessage{
		LocalID:        uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		State:          StateDraft,
		ComposedAt:     o.now(),
	}
	o.pending[msg.LocalID] = msg
	return *msg
}

// BeginSend moves a draft into Sending and returns the content to submit.
func (o *Outbox) BeginSend(localID string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg, ok := o.pending[localID]
	if !ok {
		return "", ErrUnknownMessage
	}
	if msg.State != StateDraft {
		return "", ErrInvalidTransition
	}
	msg.State = StateSending
	msg.Attempts++
	return msg.Content, nil
}

// Confirm marks a sending message as confirmed by the server.
func (o *Outbox) Confirm(localID string, serverID int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg, ok := o.pending[localID]
	if !ok {
		return ErrUnknownMessage
	}
	if msg.State != StateSending {
		return ErrInvalidTransition
	}
	msg.State = StateSent
	msg.ServerID = serverID
	return nil
}

// Fail marks a sending message as failed. The content stays retained for a
// manual retry.
func (o *Outbox) Fail(localID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg, ok := o.pending[localID]
	if !ok {
		return ErrUnknownMessage
	}
	if msg.State != StateSending {
		return ErrInvalidTransition
	}
	msg.State = StateFailed
	return nil
}

// Retry resubmits a failed message with its exact original content. Only one
// retry is allowed; further attempts report ErrRetryExhausted.
func (o *Outbox) Retry(localID string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg, ok := o.pending[localID]
	if !ok {
		return "", ErrUnknownMessage
	}
	if msg.State != StateFailed {
		return "", ErrInvalidTransition
	}
	if msg.Attempts >= maxAttempts {
		return "", ErrRetryExhausted
	}
	msg.State = StateSending
	msg.Attempts++
	return msg.Content, nil
}

// Reconcile drops Sent entries that appear in the confirmed server log,
// leaving drafts, in-flight sends and failed sends untouched.
func (o *Outbox) Reconcile(confirmed []models.Message) {
	confirmedIDs := make(map[int]struct{}, len(confirmed))
	for _, m := range confirmed {
		confirmedIDs[m.ID] = struct{}{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for id, msg := range o.pending {
		if msg.State != StateSent {
			continue
		}
		if _, ok := confirmedIDs[msg.ServerID]; ok {
			delete(o.pending, id)
		}
	}
}

// Pending returns snapshots of the outbox entries for a conversation in
// composition order.
func (o *Outbox) Pending(conversationID int) []OutgoingMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []OutgoingMessage
	for _, msg := range o.pending {
		if msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComposedAt.Before(out[j].ComposedAt) })
	return out
}

// Get returns a snapshot of one outgoing message.
func (o *Outbox) Get(localID string) (OutgoingMessage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	msg, ok := o.pending[localID]
	if !ok {
		return OutgoingMessage{}, false
	}
	return *msg, true
}
