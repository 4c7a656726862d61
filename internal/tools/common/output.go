package common

import (
	"encoding/json"
	"io"
)

type CIResult struct {
	OK      bool     `json:"ok"`
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
	Data    any      `json:"data,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func PrintCIResult(w io.Writer, title string, details []string, data any, err error) {
	result := CIResult{OK: err == nil, Title: title, Details: details, Data: data}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
