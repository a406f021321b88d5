package common

import (
	"github.com/google/uuid"
)

// NewAnalysisID generates a unique analysis result ID with the "analysis_" prefix
// Format: analysis_<uuid>
func NewAnalysisID() string {
	return "analysis_" + uuid.New().String()
}

// NewContentID generates a unique page content ID with the "content_" prefix
// Format: content_<uuid>
func NewContentID() string {
	return "content_" + uuid.New().String()
}
