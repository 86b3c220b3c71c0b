package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding an input was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
	ISO88599    Charset = "ISO-8859-9"
)

const sniffLen = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// chardet names mapped to decoders. UTF-8 needs none.
var decoders = map[string]struct {
	charset Charset
	enc     encoding.Encoding
}{
	"ISO-8859-1":   {Windows1252, charmap.Windows1252},
	"windows-1252": {Windows1252, charmap.Windows1252},
	"ISO-8859-9":   {ISO88599, charmap.ISO8859_9},
	"UTF-16LE":     {UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	"UTF-16BE":     {UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
}

// NewUTF8Reader sniffs the encoding of r and returns a reader yielding UTF-8,
// together with the charset it decided on.
//
// A byte order mark wins. Input with NUL bytes is tried as UTF-16 by where the
// NULs fall. Otherwise valid UTF-8 passes through, then chardet gets a vote,
// and anything else is read as Windows-1252.
func NewUTF8Reader(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec), UTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, dec), UTF16BE, nil
	}

	// NUL is valid UTF-8 but never appears in a text export.
	if bytes.IndexByte(buf, 0) >= 0 {
		if cs, ok := guessUTF16(buf); ok {
			return transform.NewReader(br, decoders[string(cs)].enc.NewDecoder()), cs, nil
		}
	} else if utf8.Valid(trimPartialRune(buf)) {
		return br, UTF8, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if res.Charset == string(UTF8) {
			return br, UTF8, nil
		}

		if d, ok := decoders[res.Charset]; ok {
			return transform.NewReader(br, d.enc.NewDecoder()), d.charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), Windows1252, nil
}

// guessUTF16 recognises BOM-less UTF-16 from mostly Latin text, where every
// other byte is NUL.
func guessUTF16(buf []byte) (Charset, bool) {
	pairs := len(buf) / 2
	if pairs == 0 {
		return "", false
	}

	var even, odd int

	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] == 0 {
			even++
		}

		if buf[i+1] == 0 {
			odd++
		}
	}

	switch {
	case odd > even && odd*2 >= pairs:
		return UTF16LE, true
	case even > odd && even*2 >= pairs:
		return UTF16BE, true
	}

	return "", false
}

// trimPartialRune drops a multi-byte sequence cut off by the sniff window.
func trimPartialRune(buf []byte) []byte {
	if len(buf) < sniffLen {
		return buf
	}

	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		if utf8.RuneStart(buf[len(buf)-i]) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}

			break
		}
	}

	return buf
}
