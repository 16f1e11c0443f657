package project

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/piwi3910/DrapeCalc/internal/model"
)

// BackupVersion is written into every backup file.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string              `json:"version"`
	CreatedAt string              `json:"created_at"`
	Config    model.AppConfig     `json:"config"`
	Library   model.Library       `json:"library"`
	Templates model.TemplateStore `json:"templates"`
}

// NewBackup bundles config, library and templates into one document.
func NewBackup(config model.AppConfig, lib model.Library, templates model.TemplateStore) BackupData {
	return BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Library:   lib,
		Templates: templates,
	}
}

// WriteBackup encodes a backup as indented JSON.
func WriteBackup(w io.Writer, backup BackupData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ReadBackup decodes a backup document. Missing config fields keep their
// defaults; a document without a version is rejected.
func ReadBackup(r io.Reader) (BackupData, error) {
	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup: %w", err)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup: missing version field")
	}
	normalizeConfig(&backup.Config)
	if backup.Templates.Templates == nil {
		backup.Templates.Templates = []model.ProductTemplate{}
	}
	return backup, nil
}

// Workspace bundles the three persisted documents of one data directory.
type Workspace struct {
	Dir       string
	Config    model.AppConfig
	Library   model.Library
	Templates model.TemplateStore
}

// OpenWorkspace loads config, library and templates from dir, creating
// defaults for anything missing.
func OpenWorkspace(dir string) (*Workspace, error) {
	cfg, err := LoadAppConfig(ConfigPath(dir))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lib, err := LoadLibrary(LibraryPath(dir))
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	templates, err := LoadTemplates(TemplatesPath(dir))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &Workspace{Dir: dir, Config: cfg, Library: lib, Templates: templates}, nil
}

// Save writes all three documents back to the workspace directory.
func (w *Workspace) Save() error {
	if err := SaveAppConfig(ConfigPath(w.Dir), w.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := SaveLibrary(LibraryPath(w.Dir), w.Library); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	if err := SaveTemplates(TemplatesPath(w.Dir), w.Templates); err != nil {
		return fmt.Errorf("save templates: %w", err)
	}
	return nil
}

// Backup snapshots the workspace.
func (w *Workspace) Backup() BackupData {
	return NewBackup(w.Config, w.Library, w.Templates)
}

// Restore replaces the workspace contents with a backup.
func (w *Workspace) Restore(b BackupData) {
	w.Config = b.Config
	w.Library = b.Library
	if len(w.Library.Linings) == 0 {
		w.Library.Linings = model.DefaultLiningOptions()
	}
	w.Templates = b.Templates
}
