package api

// optimizeRequest is the body of POST /optimize and POST /orchestrate/:stage.
type optimizeRequest struct {
	RawPrompt           string   `json:"raw_prompt" binding:"required"`
	Provider            string   `json:"provider"`
	Model               string   `json:"model"`
	StrategyOverride    string   `json:"strategy_override"`
	SecondaryFrameworks []string `json:"secondary_frameworks"`
	ProjectID           *string  `json:"project_id"`
	PromptID            *string  `json:"prompt_id"`
	MaxIterations       int      `json:"max_iterations"`
	ScoreThreshold      float64  `json:"score_threshold"`
}

// batchOptimizeRequest is the body of POST /optimize/batch.
type batchOptimizeRequest struct {
	Prompts []optimizeRequest `json:"prompts" binding:"required,min=1"`
}

// webhookEventRequest is the body of POST /internal/mcp-event.
type webhookEventRequest struct {
	EventType string         `json:"event_type" binding:"required"`
	Payload   map[string]any `json:"payload"`
	SourceApp string         `json:"source_app" binding:"required"`
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	ParentID    *string `json:"parent_id"`
	Description *string `json:"description"`
}

type createPromptRequest struct {
	Content   string  `json:"content" binding:"required"`
	Title     *string `json:"title"`
	ProjectID *string `json:"project_id"`
}

type updatePromptRequest struct {
	Content *string `json:"content"`
	Title   *string `json:"title"`
}

type createFolderRequest struct {
	Name     string         `json:"name" binding:"required"`
	ParentID *string        `json:"parent_id"`
	Metadata map[string]any `json:"metadata"`
}

type renameOrMoveFolderRequest struct {
	Name        *string `json:"name"`
	NewParentID *string `json:"new_parent_id"`
	Move        bool    `json:"move"`
}

type createFileRequest struct {
	Name     string  `json:"name" binding:"required"`
	Content  string  `json:"content"`
	FolderID *string `json:"folder_id"`
}

type updateFileRequest struct {
	Content  *string `json:"content"`
	Name     *string `json:"name"`
	FolderID *string `json:"folder_id"`
	Move     bool    `json:"move"`
}
