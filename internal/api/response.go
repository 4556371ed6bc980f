package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the unified envelope format.
type Response struct {
	Result  string `json:"result"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteSuccess writes a success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeResponse(w, http.StatusOK, &Response{Result: "ok", Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	writeResponse(w, statusCode, &Response{Result: "error", Code: code, Message: message})
}

func writeResponse(w http.ResponseWriter, statusCode int, response *Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(w, `{"result":"error","code":"INTERNAL"}`)
	}
}
