package types

// ManifestRecord is one row of a batch screening spreadsheet.
type ManifestRecord struct {
	Row          int          `json:"row"`
	MediaPath    string       `json:"media_path"`
	MimeType     string       `json:"mime_type,omitempty"`
	ReportedPain bool         `json:"reported_pain"`
	PoseMetrics  *PoseMetrics `json:"pose_detection_data,omitempty"`
}

// ScreenedRecord pairs a manifest row with its outcome.
type ScreenedRecord struct {
	ManifestRecord
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"duration_ms"`
}
