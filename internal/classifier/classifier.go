// Package classifier tags mapped records as new, modified or terminated
// from the metadata of the file they came from.
package classifier

import (
	"errors"
	"fmt"

	"github.com/guttosm/firdspulse/internal/domain/models"
)

// ErrUnclassifiableSource is returned when the file type and record element
// do not resolve to exactly one change tag.
var ErrUnclassifiableSource = errors.New("unclassifiable source")

type key struct {
	fileType models.FileType
	element  string
}

// rules maps (file type, record element) to a tag. Full snapshots only
// carry RefData; deltas carry one element per action.
var rules = map[key]models.ChangeTag{
	{models.FileTypeFULINS, "RefData"}:     models.ChangeNew,
	{models.FileTypeDLTINS, "NewRcrd"}:     models.ChangeNew,
	{models.FileTypeDLTINS, "ModfdRcrd"}:   models.ChangeModified,
	{models.FileTypeDLTINS, "TermntdRcrd"}: models.ChangeTerminated,
}

// Classify wraps rec in a ChangeRecord tagged from meta.
func Classify(rec models.ReferenceData, meta models.SourceMetadata) (models.ChangeRecord, error) {
	tag, ok := rules[key{meta.FileType, meta.RecordElement}]
	if !ok {
		return models.ChangeRecord{}, fmt.Errorf("%w: file type %q with record element %q",
			ErrUnclassifiableSource, meta.FileType, meta.RecordElement)
	}
	return models.ChangeRecord{Tag: tag, Data: rec, Source: meta}, nil
}
