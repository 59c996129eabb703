// Package metadata extracts tag metadata from stored tracks.
package metadata

import (
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
)

// ReadBPM returns the tempo stored in an MP3's ID3v2 TBPM frame, or nil if
// the file has no parseable tag or no tempo. Extraction is best-effort:
// every failure mode yields nil, never an error, so listings stay usable
// for untagged uploads.
func ReadBPM(path string) *float64 {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"TBPM"}})
	if err != nil || tag == nil {
		return nil
	}
	defer tag.Close()

	text := strings.TrimSpace(tag.GetTextFrame("TBPM").Text)
	if text == "" {
		return nil
	}
	bpm, err := strconv.ParseFloat(text, 64)
	if err != nil || bpm <= 0 {
		return nil
	}
	return &bpm
}
