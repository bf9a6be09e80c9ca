package model

import "time"

// UserConfirmation is the user's verdict on an AI prediction: confirmed when
// IsCorrect is true, rejected otherwise. At most one confirmation exists per
// image. Location fields are only populated when LocationConsentGiven.
type UserConfirmation struct {
	ID                   string    `json:"id"`
	ImageID              string    `json:"image_id"`
	UserID               *string   `json:"user_id,omitempty"`
	IsCorrect            bool      `json:"is_correct"`
	PredictedDisease     string    `json:"predicted_disease"`
	UserFeedback         string    `json:"user_feedback"`
	ConfidenceScore      *float64  `json:"confidence_score,omitempty"`
	ClientIP             string    `json:"client_ip,omitempty"`
	Latitude             *float64  `json:"latitude,omitempty"`
	Longitude            *float64  `json:"longitude,omitempty"`
	LocationAccuracy     *float64  `json:"location_accuracy,omitempty"`
	LocationConsentGiven bool      `json:"location_consent_given"`
	LocationAddress      string    `json:"location_address,omitempty"`
	ConfirmedAt          time.Time `json:"confirmed_at"`
}
