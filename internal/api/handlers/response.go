package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// TranscriptionData is the payload of a successful transcription.
type TranscriptionData struct {
	Transcription string `json:"transcription"`
}

// Envelope is the shape of every API response. Data is nil exactly when
// Success is false.
type Envelope struct {
	Data    *TranscriptionData `json:"data"`
	Message string             `json:"message"`
	Success bool               `json:"success"`
}

func writeSuccess(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, Envelope{
		Data:    &TranscriptionData{Transcription: text},
		Message: "Transcription completed",
		Success: true,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Message: message})
}

// NotFound and MethodNotAllowed keep unknown routes on the envelope format.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, "Not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
