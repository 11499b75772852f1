package fileutil

import (
	"encoding/json"
	"io"
	"os"
)

func PrintJSON(value any) error {
	return WriteJSON(os.Stdout, value)
}

// WriteJSON writes indented JSON followed by a newline.
func WriteJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
