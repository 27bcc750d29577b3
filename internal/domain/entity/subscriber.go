package entity

import (
	"strings"
	"time"
)

// Subscriber receives the daily digest while active.
type Subscriber struct {
	ID             int64
	Email          string
	Name           string
	IsActive       bool
	SubscribedAt   time.Time
	UnsubscribedAt *time.Time
}

// NewSubscriber validates and builds an active subscriber.
func NewSubscriber(email, name string, now time.Time) (*Subscriber, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	return &Subscriber{
		Email:        email,
		Name:         strings.TrimSpace(name),
		IsActive:     true,
		SubscribedAt: now,
	}, nil
}

// Unsubscribe deactivates the subscriber. Repeated calls keep the first timestamp.
func (s *Subscriber) Unsubscribe(now time.Time) {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.UnsubscribedAt = &now
}
