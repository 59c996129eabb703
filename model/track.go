package model

import "strings"

// Track is one audio file inside an artist namespace. ID is the stored
// filename; Name is derived from it at read time and never persisted.
type Track struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	URL  string   `json:"url"`
	BPM  *float64 `json:"bpm"`
}

// TrackDisplayName derives the listing name from a stored filename:
// extension stripped, hyphens and underscores replaced with spaces.
func TrackDisplayName(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return name
}

// ArtistDisplayName derives a human-readable name from a slug: separators
// become spaces and each word is title-cased. Display names are lossy by
// design; the slug is the only stored identity.
func ArtistDisplayName(slug string) string {
	s := strings.ReplaceAll(slug, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
