package urlencoded

import "strings"

// Escapes is a set of characters whose percent-encoded form gets decoded. Sequences
// encoding anything outside the set are left untouched.
type Escapes [256]bool

// NewEscapes returns a set consisting of the passed characters.
func NewEscapes(chars string) (e Escapes) {
	for i := 0; i < len(chars); i++ {
		e[chars[i]] = true
	}

	return e
}

var (
	// None decodes nothing.
	None Escapes
	// Punctuation is what form fields get decoded with. Notably it lacks the percent sign,
	// the space, the equality sign and angle brackets.
	Punctuation = NewEscapes("!\"#$&'()*+,-./:?@[\\]^_`{|}~")
)

// PlusMode defines whether and when plus signs turn into spaces.
type PlusMode uint8

const (
	// PlusKeep leaves plus signs as they are.
	PlusKeep PlusMode = iota
	// PlusFirst replaces plus signs before escapes are decoded, so an encoded plus
	// survives as a plus.
	PlusFirst
	// PlusLast replaces plus signs after escapes are decoded, so an encoded plus
	// becomes a space as well.
	PlusLast
)

// Decode decodes src. Only upper-case hex digits form a valid escape sequence.
func Decode(src string, escapes Escapes, plus PlusMode) string {
	if plus == PlusFirst {
		src = strings.ReplaceAll(src, "+", " ")
	}

	src = unescape(src, &escapes)

	if plus == PlusLast {
		src = strings.ReplaceAll(src, "+", " ")
	}

	return src
}

func unescape(src string, escapes *Escapes) string {
	percent := strings.IndexByte(src, '%')
	if percent == -1 {
		return src
	}

	var b strings.Builder
	b.Grow(len(src))

	for percent != -1 {
		b.WriteString(src[:percent])
		src = src[percent:]

		if len(src) >= 3 {
			hi, lo := halfbyte[src[1]], halfbyte[src[2]]
			if hi|lo <= 0x0f && escapes[hi<<4|lo] {
				b.WriteByte(hi<<4 | lo)
				src = src[3:]
				percent = strings.IndexByte(src, '%')
				continue
			}
		}

		b.WriteByte('%')
		src = src[1:]
		percent = strings.IndexByte(src, '%')
	}

	b.WriteString(src)

	return b.String()
}

// halfbyte maps upper-case hex digits onto their values; everything else is 0xff.
var halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xff
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('A'); c <= 'F'; c++ {
		table[c] = c - 'A' + 0xa
	}

	return table
}()
