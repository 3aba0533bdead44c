package models

// ScanResponse is the success body of the scanning service.
type ScanResponse struct {
	Results []PlagiarismResult `json:"results"`
}

// ScanErrorResponse is the failure body of the scanning service.
type ScanErrorResponse struct {
	Detail  string `json:"detail"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MountSessionResponse is returned when a class view mounts a session.
type MountSessionResponse struct {
	SessionID string `json:"sessionId"`
	ClassID   string `json:"classId"`
}

// SessionResponse is the view-facing snapshot of a scan session.
type SessionResponse struct {
	SessionID          string             `json:"sessionId"`
	ClassID            string             `json:"classId"`
	Phase              string             `json:"phase"`
	IsChecking         bool               `json:"isChecking"`
	ModalVisible       bool               `json:"modalVisible"`
	StudentViewEnabled bool               `json:"studentViewEnabled"`
	CanCheckPlagiarism bool               `json:"canCheckPlagiarism"`
	Results            []PlagiarismResult `json:"results"`
}

// ScanTriggerResponse reports the phase right after a trigger.
type ScanTriggerResponse struct {
	Phase      string `json:"phase"`
	IsChecking bool   `json:"isChecking"`
}

type StudentViewRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
