package domain

// TextChunk is a contiguous slice of corpus text.
// Offsets are rune offsets into the text that was split.
type TextChunk struct {
	Text        string `json:"text"`
	Position    int    `json:"position"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	Source      string `json:"source,omitempty"`
}

// RetrievedPassage is a chunk returned by similarity search.
type RetrievedPassage struct {
	Text     string  `json:"text"`
	Source   string  `json:"source,omitempty"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
}
