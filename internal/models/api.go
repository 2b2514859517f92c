package models

import "github.com/google/uuid"

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WSMessage is the envelope pushed to clients over the websocket hub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LikeNotification tells a set owner that someone liked their set.
type LikeNotification struct {
	SetID      uuid.UUID `json:"set_id"`
	SetTitle   string    `json:"set_title"`
	LikedBy    uuid.UUID `json:"liked_by"`
	LikesCount int       `json:"likes_count"`
}
