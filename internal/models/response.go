package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// MessageResponse is the body for errors and the no-op update reply.
type MessageResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Message: message}
}

func NewValidationResponse(err *ValidationError) MessageResponse {
	return MessageResponse{
		Message: err.Message,
		Errors:  err.Fields,
	}
}

// InsertAck acknowledges an insert and carries the new item's id.
type InsertAck struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

// UpdateAck reports what an update matched and modified.
type UpdateAck struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}
