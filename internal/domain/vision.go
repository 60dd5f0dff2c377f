package domain

// DocumentAnalysis is the raw OCR output for one submitted document.
type DocumentAnalysis struct {
	ID            string  `json:"id"`
	DocumentType  string  `json:"documentType,omitempty"`
	ExtractedText string  `json:"extractedText"`
	Confidence    float64 `json:"confidence"`
}

// DetectedObject is one object recognized in a claim image.
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ImageAnalysis is the raw CNN output for one submitted image.
type ImageAnalysis struct {
	ID               string           `json:"id"`
	SceneDescription string           `json:"sceneDescription"`
	DetectedObjects  []DetectedObject `json:"detectedObjects,omitempty"`
	Verification     string           `json:"verification,omitempty"`
	Confidence       float64          `json:"confidence"`
}
