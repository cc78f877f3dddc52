// Package session carries one-shot flash messages between a redirecting
// request and the page it redirects to.
package session

import "context"

type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
)

type Message struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// Store keeps pending flash messages per session id.
type Store interface {
	Push(ctx context.Context, sid string, msg Message) error
	// Pop returns the pending messages in push order and forgets them.
	Pop(ctx context.Context, sid string) ([]Message, error)
}
