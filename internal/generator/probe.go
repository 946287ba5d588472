package generator

import (
	"github.com/h2non/filetype"
)

const sourceTypeUnknown = "unknown"

// sourceType sniffs the MIME type of the file at fpath from its header bytes
func sourceType(fpath string) string {
	kind, err := filetype.MatchFile(fpath)
	if err != nil || kind == filetype.Unknown {
		return sourceTypeUnknown
	}
	return kind.MIME.Value
}
