package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// LibraryPath returns the path of the fabric library inside dir.
func LibraryPath(dir string) string {
	return filepath.Join(dir, "library.json")
}

// SaveLibrary writes the library to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveLibrary(path string, lib model.Library) error {
	return writeJSON(path, lib)
}

// LoadLibrary reads the library from the specified JSON file.
// If the file does not exist, it returns the default library and saves it.
func LoadLibrary(path string) (model.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lib := model.DefaultLibrary()
			if saveErr := SaveLibrary(path, lib); saveErr != nil {
				return lib, saveErr
			}
			return lib, nil
		}
		return model.Library{}, err
	}
	var lib model.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return model.Library{}, err
	}
	if len(lib.Linings) == 0 {
		lib.Linings = model.DefaultLiningOptions()
	}
	return lib, nil
}
