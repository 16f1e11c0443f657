package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// TemplatesPath returns the path of the templates store inside dir.
func TemplatesPath(dir string) string {
	return filepath.Join(dir, "templates.json")
}

// SaveTemplates writes the template store to a JSON file.
func SaveTemplates(path string, store model.TemplateStore) error {
	return writeJSON(path, store)
}

// LoadTemplates reads a template store from a JSON file.
// If the file does not exist, returns the default templates.
func LoadTemplates(path string) (model.TemplateStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultTemplateStore(), nil
		}
		return model.TemplateStore{}, err
	}
	var store model.TemplateStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.TemplateStore{}, err
	}
	if store.Templates == nil {
		store.Templates = []model.ProductTemplate{}
	}
	return store, nil
}
