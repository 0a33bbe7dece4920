package httphandler

import (
	"encoding/json"
	"net/http"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SupportedModelResponse is the JSON representation of a supported model.
type SupportedModelResponse struct {
	ModelName string `json:"model_name"`
}

// CreateTrainingClientRequest is the JSON body for POST /api/training-clients.
type CreateTrainingClientRequest struct {
	BaseModel string `json:"base_model" validate:"required"`
}

// TrainingClientResponse acknowledges a created training client.
type TrainingClientResponse struct {
	Status    string `json:"status"`
	BaseModel string `json:"base_model"`
}

// HealthResponse is the JSON body of the health check.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
