package dto

// ExportRequest selects files for PDF bundling.
type ExportRequest struct {
	FileIDs []string `json:"selected_files" validate:"required,min=1"`
}

// ExportJobResponse reports async export job state.
type ExportJobResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ResultURL *string `json:"result_url,omitempty"`
	Error     *string `json:"error,omitempty"`
}
