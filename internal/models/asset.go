package models

// Asset is a reference to a file uploaded to object storage.
// Attached to machines, spare parts, problems and solutions.
type Asset struct {
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Bucket      string `json:"bucket"`
}
