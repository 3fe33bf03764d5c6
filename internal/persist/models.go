package persist

import (
	"encoding/json"
	"time"

	"github.com/kayz/modprompt/internal/composer"
)

// Composition is a stored composition
type Composition struct {
	ID          string              `json:"id"`
	Library     string              `json:"library"`
	Model       string              `json:"model"`
	Selections  map[string]string   `json:"selections,omitempty"`
	Addons      map[string]string   `json:"addons,omitempty"`
	IntentFlags map[string]string   `json:"intent_flags,omitempty"`
	Custom      string              `json:"custom,omitempty"`
	Prompt      string              `json:"prompt"`
	Fragments   []composer.Fragment `json:"fragments"`
	CreatedAt   time.Time           `json:"created_at"`
}

// toJSON converts an object to JSON string
func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// fromJSON parses JSON string into an object
func fromJSON(data string, v interface{}) error {
	if data == "" || data == "{}" || data == "[]" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
