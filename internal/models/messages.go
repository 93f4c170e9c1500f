package models

import "time"

type Message struct {
	MessageID string    `json:"message_id" db:"message_id"`
	RoomID    string    `json:"room_id" db:"room_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Body      string    `json:"body" db:"body"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
}
