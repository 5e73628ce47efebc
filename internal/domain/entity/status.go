package entity

import "encoding/json"

type scriptStatus struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// ReportsFailure reports whether payload is an object carrying
// "success": false, and returns its error text.
func ReportsFailure(payload json.RawMessage) (bool, string) {
	var status scriptStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return false, ""
	}
	if status.Success != nil && !*status.Success {
		return true, status.Error
	}
	return false, ""
}
