package sourcecontrol

import (
	"io"
	"strings"
	"time"

	"ci-orchestrator/core/models"
)

// History records are produced by an external version-control tool using a
// fixed format string, so every entry carries the same literal separators.
// The parser never controls that output; it has to accept whatever arrives.
const (
	// FieldSeparator delimits the fields inside one history entry.
	FieldSeparator = "#~#"

	// EntryDelimiter terminates one history entry in the raw stream.
	EntryDelimiter = "@#@#@#@#@#@#@#@#@#@#@#@"

	fieldCount = 8
)

// Field positions inside a tokenized entry.
const (
	fieldUser = iota
	fieldTime
	fieldElement
	fieldVersion
	fieldChangeType
	fieldMarkerOne
	fieldMarkerTwo
	fieldComment
)

// ignoredChangeTypes are structural branch bookkeeping operations that never
// represent a content change and must not surface as modifications. Any other
// change type, including placeholder strings the tool emits for metadata
// operations, passes through verbatim.
var ignoredChangeTypes = map[string]struct{}{
	"mkbranch": {},
	"rmbranch": {},
}

// timeLayouts are the timestamp shapes observed in history output. The tool
// formats timestamps per client locale, so parsing is best effort.
var timeLayouts = []string{
	"02-Jan-2006.15:04:05",
	"20060102.150405",
	time.RFC3339,
}

// TokenizeEntry splits one raw history entry into its fixed field set. The
// result always has exactly 8 fields: omitted trailing fields are padded with
// the empty string. The comment field is the unsplit remainder, so separator
// lookalikes inside a comment are never divided further.
func TokenizeEntry(raw string) [fieldCount]string {
	var fields [fieldCount]string
	parts := strings.SplitN(raw, FieldSeparator, fieldCount)
	copy(fields[:], parts)
	return fields
}

// ParseEntry converts one raw history entry into a Modification. The second
// return value is false when the entry is filtered (ignored change type) or
// structurally malformed; neither case is an error, and neither aborts the
// surrounding stream.
func ParseEntry(raw string) (*models.Modification, bool) {
	fields := TokenizeEntry(raw)

	if _, ignored := ignoredChangeTypes[fields[fieldChangeType]]; ignored {
		return nil, false
	}

	// A well-formed entry carries at least the separators up to the
	// change-type field. Fewer means the line is not history output at all.
	separators := strings.Count(raw, FieldSeparator)
	if separators < fieldChangeType {
		return nil, false
	}

	folder, file := models.SplitElementPath(fields[fieldElement])

	mod := &models.Modification{
		UserName:   fields[fieldUser],
		ModifiedAt: parseTimestamp(fields[fieldTime]),
		FolderName: folder,
		FileName:   file,
		ChangeType: fields[fieldChangeType],
		Version:    fields[fieldVersion],
	}

	// The comment field is only present when the tool emitted all leading
	// separators; a padded empty field would conflate "no comment" with an
	// actual empty comment.
	if separators >= fieldComment {
		comment := fields[fieldComment]
		mod.Comment = &comment
	}

	return mod, true
}

// ParseHistory reads entry-delimited history records and returns the
// modifications whose timestamps fall inside [from, to], in source order.
// A malformed record never aborts processing of the rest.
func ParseHistory(r io.Reader, from, to time.Time) ([]*models.Modification, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var mods []*models.Modification
	for _, entry := range strings.Split(string(raw), EntryDelimiter) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		mod, ok := ParseEntry(entry)
		if !ok {
			continue
		}
		if mod.ModifiedAt.Before(from) || mod.ModifiedAt.After(to) {
			continue
		}
		mods = append(mods, mod)
	}

	return mods, nil
}

// parseTimestamp parses a history timestamp, falling back to the zero time
// when no known layout matches. Unattended polling must not stop because one
// entry carries a locale format we have not seen.
func parseTimestamp(value string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
