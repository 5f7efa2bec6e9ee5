package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "lines from Td",
			stream: "BT /F1 12 Tf 72 712 Td (Hello) Tj 0 -14 Td (World) Tj ET",
			want:   "Hello\nWorld",
		},
		{
			name:   "TJ with kerning gap",
			stream: "BT [(Sch) 20 (ema) -300 (Therapy)] TJ ET",
			want:   "Schema Therapy",
		},
		{
			name:   "UTF-16 hex string",
			stream: "BT <FEFF015F0065006D0061> Tj ET",
			want:   "şema",
		},
		{
			name:   "escapes and octal",
			stream: `BT (a\(b\)c \351) Tj ET`,
			want:   "a(b)c é",
		},
		{
			name:   "quote operator starts a new line",
			stream: "BT (first) Tj (second) ' ET",
			want:   "first\nsecond",
		},
		{
			name:   "marked content dictionary is skipped",
			stream: "/Span <</MCID 0 /Alt (ignored)>> BDC BT (visible) Tj ET EMC",
			want:   "visible",
		},
		{
			name:   "comments and graphics are ignored",
			stream: "% comment (no)\nq 1 0 0 1 0 0 cm 0 0 m 10 10 l S Q BT (text) Tj ET",
			want:   "text",
		},
		{
			name:   "horizontal move adds a space",
			stream: "BT (left) Tj 50 0 Td (right) Tj ET",
			want:   "left right",
		},
		{
			name:   "inline image data is skipped",
			stream: "BI /W 1 /H 1 ID \x00(\xff) EI BT (after) Tj ET",
			want:   "after",
		},
		{
			name:   "empty stream",
			stream: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentText([]byte(tt.stream)))
		})
	}
}

func TestDecodeString(t *testing.T) {
	assert.Equal(t, "abc", decodeString([]byte("abc")))
	assert.Equal(t, "é", decodeString([]byte{0xE9}))
	assert.Equal(t, "ğ", decodeString([]byte{0xFE, 0xFF, 0x01, 0x1F}))
	assert.Equal(t, "ab", decodeString([]byte{'a', 0x01, 'b'}))
}
