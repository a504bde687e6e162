package model

type TrashRequest struct {
	Reason string `json:"reason"`
}

type PermanentDeleteRequest struct {
	Method string `json:"method"`
	Passes int    `json:"passes"`
}

type EmptyTrashResponse struct {
	DeletedCount int `json:"deleted_count"`
}

type TrashListData struct {
	Items []Document `json:"items"`
}

type RetentionRunResponse struct {
	DeletedCount int    `json:"deleted_count"`
	StartedAt    string `json:"started_at"`
	FinishedAt   string `json:"finished_at"`
}

type PermanentDeleteResponse struct {
	DocumentID string `json:"document_id"`
	Erased     bool   `json:"erased"`
}

type RetentionStatus struct {
	Schedule      string  `json:"schedule"`
	Running       bool    `json:"running"`
	RetentionDays int     `json:"retention_days"`
	NextRun       *string `json:"next_run,omitempty"`
	LastRun       *string `json:"last_run,omitempty"`
}
