package pdf

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// kerningSpace is the TJ adjustment (thousandths of text space) treated as a word gap.
const kerningSpace = -200

// ContentText decodes the text shown by a page content stream.
// Strings passed to Tj, TJ, ' and " are decoded as PDFDocEncoding or,
// with a byte order mark, UTF-16BE. Line moves and text block ends
// produce newlines.
//
// TODO: decode CID fonts through their ToUnicode CMaps; glyph ids from
// Identity-H fonts are dropped today.
func ContentText(stream []byte) string {
	p := &contentParser{data: stream}
	return p.run()
}

type contentParser struct {
	data     []byte
	pos      int
	out      strings.Builder
	operands []operand
}

type operand struct {
	str     []byte
	isStr   bool
	num     float64
	isNum   bool
	array   []operand
	isArray bool
}

func (p *contentParser) run() string {
	for {
		op, ok := p.next()
		if !ok {
			break
		}
		if op.isStr || op.isNum || op.isArray {
			p.operands = append(p.operands, op)
			continue
		}
	}
	return strings.TrimSpace(p.out.String())
}

// next reads one operand, or executes one operator and returns an empty operand.
func (p *contentParser) next() (operand, bool) {
	p.skipSpace()
	if p.pos >= len(p.data) {
		return operand{}, false
	}

	c := p.data[p.pos]
	switch {
	case c == '(':
		return operand{str: p.literalString(), isStr: true}, true
	case c == '<' && p.peek(1) == '<':
		p.skipDictionary()
		return operand{}, true
	case c == '<':
		return operand{str: p.hexString(), isStr: true}, true
	case c == '[':
		p.pos++
		return operand{array: p.array(), isArray: true}, true
	case c == ']' || c == '>' || c == '{' || c == '}':
		p.pos++
		return operand{}, true
	case c == '/':
		p.pos++
		p.word()
		return operand{}, true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		num, _ := strconv.ParseFloat(p.word(), 64)
		return operand{num: num, isNum: true}, true
	default:
		p.operator(p.word())
		return operand{}, true
	}
}

func (p *contentParser) operator(name string) {
	if name == "" {
		p.pos++
		return
	}
	switch name {
	case "Tj":
		p.showLast()
	case "'", "\"":
		p.newline()
		p.showLast()
	case "TJ":
		if n := len(p.operands); n > 0 && p.operands[n-1].isArray {
			for _, item := range p.operands[n-1].array {
				switch {
				case item.isStr:
					p.out.WriteString(decodeString(item.str))
				case item.isNum && item.num <= kerningSpace:
					p.out.WriteString(" ")
				}
			}
		}
	case "T*", "ET":
		p.newline()
	case "Td", "TD":
		if n := len(p.operands); n >= 1 && p.operands[n-1].isNum && p.operands[n-1].num != 0 {
			p.newline()
		} else {
			p.space()
		}
	case "BI":
		p.skipInlineImage()
	}
	p.operands = p.operands[:0]
}

func (p *contentParser) showLast() {
	for i := len(p.operands) - 1; i >= 0; i-- {
		if p.operands[i].isStr {
			p.out.WriteString(decodeString(p.operands[i].str))
			return
		}
	}
}

func (p *contentParser) newline() {
	s := p.out.String()
	if len(s) > 0 && !strings.HasSuffix(s, "\n") {
		p.out.WriteString("\n")
	}
}

func (p *contentParser) space() {
	s := p.out.String()
	if len(s) > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
		p.out.WriteString(" ")
	}
}

func (p *contentParser) peek(offset int) byte {
	if p.pos+offset < len(p.data) {
		return p.data[p.pos+offset]
	}
	return 0
}

func (p *contentParser) skipSpace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '%' {
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		if !isWhitespace(c) {
			return
		}
		p.pos++
	}
}

func (p *contentParser) word() string {
	start := p.pos
	for p.pos < len(p.data) && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *contentParser) array() []operand {
	var items []operand
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return items
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return items
		}
		item, ok := p.next()
		if !ok {
			return items
		}
		if item.isStr || item.isNum {
			items = append(items, item)
		}
	}
}

func (p *contentParser) literalString() []byte {
	p.pos++ // (
	var buf []byte
	depth := 1

	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++

		switch c {
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return buf
			}
			buf = append(buf, c)
		case '\\':
			if p.pos >= len(p.data) {
				return buf
			}
			esc := p.data[p.pos]
			p.pos++
			switch esc {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if p.pos < len(p.data) && p.data[p.pos] == '\n' {
					p.pos++
				}
			case '\n':
			default:
				if esc >= '0' && esc <= '7' {
					val := int(esc - '0')
					for i := 0; i < 2 && p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '7'; i++ {
						val = val*8 + int(p.data[p.pos]-'0')
						p.pos++
					}
					buf = append(buf, byte(val))
				} else {
					buf = append(buf, esc)
				}
			}
		default:
			buf = append(buf, c)
		}
	}
	return buf
}

func (p *contentParser) hexString() []byte {
	p.pos++ // <
	var digits []byte
	for p.pos < len(p.data) && p.data[p.pos] != '>' {
		if c := p.data[p.pos]; isHex(c) {
			digits = append(digits, c)
		}
		p.pos++
	}
	p.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	buf := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		v, _ := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		buf = append(buf, byte(v))
	}
	return buf
}

func (p *contentParser) skipDictionary() {
	depth := 0
	for p.pos < len(p.data)-1 {
		switch {
		case p.data[p.pos] == '<' && p.data[p.pos+1] == '<':
			depth++
			p.pos += 2
		case p.data[p.pos] == '>' && p.data[p.pos+1] == '>':
			depth--
			p.pos += 2
			if depth == 0 {
				return
			}
		default:
			p.pos++
		}
	}
	p.pos = len(p.data)
}

// skipInlineImage jumps past binary image data up to the EI operator.
func (p *contentParser) skipInlineImage() {
	idx := strings.Index(string(p.data[p.pos:]), "EI")
	for idx != -1 {
		end := p.pos + idx + 2
		before := p.pos + idx - 1
		if (before < 0 || isWhitespace(p.data[before])) && (end >= len(p.data) || isWhitespace(p.data[end])) {
			p.pos = end
			return
		}
		next := strings.Index(string(p.data[end:]), "EI")
		if next == -1 {
			break
		}
		idx = end - p.pos + next
	}
	p.pos = len(p.data)
}

// decodeString maps PDF string bytes to text.
func decodeString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		units := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}

	runes := make([]rune, 0, len(b))
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\t' {
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
