package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

// envelope is the uniform response body shape. Exactly one of Message or
// Error is set depending on Success.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondOK(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, envelope{Success: false, Error: message})
}

func respondErrorData(w http.ResponseWriter, status int, message string, data interface{}) {
	respondJSON(w, status, envelope{Success: false, Error: message, Data: data})
}

// decodeJSON reads a request body into dst, rejecting unknown payloads
// that are not JSON objects at all.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
