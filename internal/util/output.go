package util

import (
	"encoding/json"
	"io"
)

// Response is the envelope every --json invocation prints.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// NewResponse builds a Response; an empty message or nil data is omitted from the JSON.
func NewResponse(success bool, message string, data interface{}) Response {
	return Response{Success: success, Message: message, Data: data}
}

// PrintJSON writes v as indented JSON. HTML characters are left alone since
// release notes routinely carry markdown such as <details> or "&".
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
