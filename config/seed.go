package config

import (
	"encoding/json"
	"os"
)

// SeedDocument describes one document to push through the ingest API,
// loaded from a JSON seed file.
type SeedDocument struct {
	Name       string `json:"name"`
	Collection string `json:"collection,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Text       string `json:"text,omitempty"`
}

// LoadSeedDocuments reads a JSON array of seed documents from path.
func LoadSeedDocuments(path string) ([]SeedDocument, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var docs []SeedDocument
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&docs); err != nil {
		return nil, err
	}

	return docs, nil
}
