package model

import (
	"path"
	"strings"
	"time"
)

// Modification is one detected change in the upstream repository. It is
// produced by a change-source provider and treated as read-only afterwards.
type Modification struct {
	Type         string    `json:"type"`
	FileName     string    `json:"file_name"`
	FolderName   string    `json:"folder_name"`
	UserName     string    `json:"user_name"`
	EmailAddress string    `json:"email_address,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	ChangeNumber string    `json:"change_number,omitempty"`
	ModifiedTime time.Time `json:"modified_time"`
	URL          string    `json:"url,omitempty"`
}

// Modification types reported by the bundled providers
const (
	ModificationAdded    = "added"
	ModificationModified = "modified"
	ModificationDeleted  = "deleted"
	ModificationRenamed  = "renamed"
)

// Path returns the slash separated location of the changed file
func (m *Modification) Path() string {
	folder := strings.ReplaceAll(m.FolderName, "\\", "/")
	file := strings.ReplaceAll(m.FileName, "\\", "/")
	if folder == "" {
		return file
	}
	if file == "" {
		return folder
	}
	return path.Join(folder, file)
}
