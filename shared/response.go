package shared

import (
	"encoding/json"
	"log"
	"net/http"
)

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorBody struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func SendJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(successResponse{Success: true, Data: data}); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func SendError(w http.ResponseWriter, code ErrorCode, msg string, status int) {
	writeError(w, status, errorBody{Code: code, Message: msg})
}

// SendServiceError maps a service failure onto the response. Anything that is not a
// ServiceError is reported as an opaque internal error.
func SendServiceError(w http.ResponseWriter, err error) {
	se, ok := AsServiceError(err)
	if !ok {
		log.Printf("Unexpected error: %v", err)
		SendError(w, CodeInternal, "Internal server error", http.StatusInternalServerError)
		return
	}
	if se.StatusCode >= http.StatusInternalServerError {
		log.Printf("Service failure: %v", se)
	}
	writeError(w, se.StatusCode, errorBody{Code: se.Code, Message: se.Message, Details: se.Details})
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Success: false, Error: body}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
