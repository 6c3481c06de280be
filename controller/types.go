package controller

type entryRequest struct {
	ID string `json:"id" form:"id"`
}

type renameRequest struct {
	OldID string `json:"oldId"`
	NewID string `json:"newId"`
}

type moveRequest struct {
	ID          string `json:"id"`
	Destination string `json:"destination"`
}

type contentRequest struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type contentResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type pdfRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	Diagnostic string `json:"diagnostic,omitempty"`
}
