package model

import "time"

// Notification is a durable, user-facing record derived from a domain event.
// Created by the push consumer, mutated only by the recipient marking it read,
// never deleted by this subsystem.
type Notification struct {
	ID          int64     `json:"id"`
	RecipientID string    `json:"recipientId"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Link        string    `json:"link,omitempty"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
}
