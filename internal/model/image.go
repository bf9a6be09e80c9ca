package model

import "time"

// MangoImage is an uploaded mango photo together with its classification
// result and verification state. StoragePath points into object storage.
type MangoImage struct {
	ID                    string     `json:"id"`
	UserID                *string    `json:"user_id,omitempty"`
	StoragePath           string     `json:"storage_path"`
	OriginalFilename      string     `json:"original_filename"`
	ContentType           string     `json:"content_type"`
	Size                  int64      `json:"size"`
	PredictedClass        string     `json:"predicted_class"`
	DiseaseClassification string     `json:"disease_classification"`
	DiseaseType           string     `json:"disease_type"`
	ConfidenceScore       *float64   `json:"confidence_score,omitempty"`
	IsVerified            bool       `json:"is_verified"`
	VerifiedBy            *string    `json:"verified_by,omitempty"`
	VerifiedDate          *time.Time `json:"verified_date,omitempty"`
	Notes                 string     `json:"notes"`
	ImageSize             string     `json:"image_size"`
	ProcessingTime        *float64   `json:"processing_time,omitempty"`
	ClientIP              string     `json:"client_ip,omitempty"`
	UploadedAt            time.Time  `json:"uploaded_at"`
}

// PredictionLog records one classification request against an image,
// kept for analytics.
type PredictionLog struct {
	ID           string    `json:"id"`
	ImageID      string    `json:"image_id"`
	ClientIP     string    `json:"client_ip"`
	UserAgent    string    `json:"user_agent"`
	ResponseTime float64   `json:"response_time"`
	CreatedAt    time.Time `json:"created_at"`
}

// MLModel is metadata about a deployed classifier version.
type MLModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Endpoint  string    `json:"endpoint"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
