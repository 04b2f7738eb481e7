package api

import "time"

// projectResponse is the JSON shape returned by the project endpoints.
type projectResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Depth       int       `json:"depth"`
	Status      string    `json:"status"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// promptResponse is the JSON shape returned by the prompt endpoints.
type promptResponse struct {
	ID        string    `json:"id"`
	ProjectID *string   `json:"project_id,omitempty"`
	Title     *string   `json:"title,omitempty"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// promptVersionResponse is the JSON shape of a single entry returned by
// GET /api/prompts/:id/versions.
type promptVersionResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// folderResponse is the JSON shape returned by the VFS folder endpoints.
type folderResponse struct {
	ID        string         `json:"id"`
	AppID     string         `json:"app_id"`
	Name      string         `json:"name"`
	ParentID  *string        `json:"parent_id,omitempty"`
	Depth     int            `json:"depth"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// fileResponse is the JSON shape returned by the VFS file endpoints.
type fileResponse struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	Name      string    `json:"name"`
	FolderID  *string   `json:"folder_id,omitempty"`
	Content   string    `json:"content"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// fileVersionResponse is the JSON shape of a single entry returned by
// GET /api/vfs/:appID/files/:id/versions.
type fileVersionResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// jobSubmittedResponse is returned for each item of POST /optimize/batch.
type jobSubmittedResponse struct {
	JobID string `json:"job_id"`
}

// optimizationResponse is the JSON shape returned by GET /optimize/:id
// and the optimization CRUD actions.
type optimizationResponse struct {
	ID              string   `json:"id"`
	Status          string   `json:"status"`
	RawPrompt       string   `json:"raw_prompt"`
	Strategy        *string  `json:"strategy,omitempty"`
	OptimizedPrompt *string  `json:"optimized_prompt,omitempty"`
	OverallScore    *float64 `json:"overall_score,omitempty"`
	ErrorMessage    *string  `json:"error_message,omitempty"`
	Title           *string  `json:"title,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}
