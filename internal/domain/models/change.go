package models

import "time"

// ChangeTag is the status of a record relative to the previous feed state.
type ChangeTag string

const (
	ChangeNew        ChangeTag = "NEW"
	ChangeModified   ChangeTag = "MODIFIED"
	ChangeTerminated ChangeTag = "TERMINATED"
)

// FileType is the FIRDS file family advertised by the regulator's index.
type FileType string

const (
	FileTypeFULINS FileType = "FULINS" // full snapshot of instruments
	FileTypeDLTINS FileType = "DLTINS" // daily delta
	FileTypeFULCAN FileType = "FULCAN" // cancellations
)

// Source identifies the regulator publishing the feed.
type Source string

const (
	SourceESMA Source = "ESMA"
	SourceFCA  Source = "FCA"
)

// SourceMetadata describes where a record came from.
//
// RecordElement is the local name of the XML element that wrapped the record
// (RefData, NewRcrd, ModfdRcrd, TermntdRcrd, CancRcrd).
type SourceMetadata struct {
	Source        Source
	FileName      string
	FileType      FileType
	PublishedAt   time.Time
	ArchiveHash   string
	Member        string
	RecordElement string
}

// ChangeRecord is a classified record ready for persistence.
type ChangeRecord struct {
	Tag    ChangeTag
	Data   ReferenceData
	Source SourceMetadata
}
