package importer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Encoding represents a text encoding of an import file
type Encoding string

const (
	EncodingAuto        Encoding = ""
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding maps a user supplied name to an Encoding
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return EncodingAuto, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1250", "cp1250":
		return EncodingWindows1250, nil
	case "iso-8859-2", "latin2":
		return EncodingISO88592, nil
	default:
		return "", fmt.Errorf("unsupported encoding: %s", name)
	}
}

// Decode converts data to a UTF-8 string. Valid UTF-8 input is returned as-is
// regardless of the requested encoding; auto falls back to Windows-1250.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return string(data), nil
	}

	var decoder *charmap.Charmap
	switch enc {
	case EncodingISO88592:
		decoder = charmap.ISO8859_2
	case EncodingUTF8:
		return "", fmt.Errorf("content is not valid utf-8")
	default:
		decoder = charmap.Windows1250
	}

	out, _, err := transform.Bytes(decoder.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s content: %w", enc, err)
	}
	return string(out), nil
}

// normalizeHeader lowercases a header and strips diacritics and punctuation
// so "Šifra artikla" and "sifra_artikla" compare equal.
func normalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, h)
	if err != nil {
		stripped = h
	}

	stripped = strings.Map(func(r rune) rune {
		switch {
		case r == 'đ' || r == 'Đ':
			return 'd'
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, stripped)
	return strings.Join(strings.Fields(stripped), " ")
}
