package domain

// PublishRequest is the post payload handed to the CMS.
type PublishRequest struct {
	Title         string
	HTML          string
	Excerpt       string
	Status        string
	FeaturedMedia int
	Meta          map[string]any
	ACF           map[string]any
	Retry         RetrySettings
}

// PublishResult reports the outcome of a post creation. Failure is a value, not an error.
type PublishResult struct {
	Success    bool     `json:"success"`
	PostID     int      `json:"post_id"`
	URL        string   `json:"url"`
	StatusCode int      `json:"status_code"`
	StatusText string   `json:"status_text"`
	Attempts   int      `json:"attempts"`
	Error      string   `json:"error,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// MediaUpload is one binary sent to the media library.
type MediaUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	AltText     string
	Retry       RetrySettings
}

// MediaUploadResult reports the outcome of a media upload.
type MediaUploadResult struct {
	Success    bool   `json:"success"`
	ID         int    `json:"id"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
}
