package models

import "time"

// Modification represents one detected change to a tracked source element
type Modification struct {
	UserName     string
	ModifiedAt   time.Time // Zero when the source timestamp could not be parsed
	FolderName   string
	FileName     string
	ChangeType   string
	Version      string
	Comment      *string // Optional - absent is not the same as empty
	EmailAddress *string // Resolved by the notification layer, not the parser
	URL          *string // Resolved by the dashboard layer, not the parser
}

// SplitElementPath splits a source element's full path at its last separator.
// Both unix and windows separators are honored because the version-control
// tool emits whatever the client platform uses. No separator means the whole
// string is the file name.
func SplitElementPath(fullPath string) (folder, file string) {
	for i := len(fullPath) - 1; i >= 0; i-- {
		if fullPath[i] == '/' || fullPath[i] == '\\' {
			return fullPath[:i], fullPath[i+1:]
		}
	}
	return "", fullPath
}
