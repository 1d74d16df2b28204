package subtitles

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies how a script file was stored on disk. Rewritten
// scripts are saved back in the same encoding so players keep accepting
// them.
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
)

func (e Encoding) String() string {
	switch e {
	case EncodingUTF8BOM:
		return "utf-8 bom"
	case EncodingUTF16LE:
		return "utf-16 le"
	case EncodingUTF16BE:
		return "utf-16 be"
	default:
		return "utf-8"
	}
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding sniffs the byte order mark. Files without one are treated
// as plain UTF-8.
func DetectEncoding(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8BOM
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	default:
		return EncodingUTF8
	}
}

// Script is one subtitle file loaded into memory for rewriting.
type Script struct {
	Path     string
	Text     string
	Encoding Encoding
}

// ReadScript loads and decodes a subtitle file, remembering its on-disk
// encoding.
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle script: %w", err)
	}
	encoding := DetectEncoding(data)
	text, err := decode(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("decode subtitle script %s: %w", path, err)
	}
	return &Script{Path: path, Text: text, Encoding: encoding}, nil
}

// Save writes the (possibly rewritten) text back to the script's path in
// its original encoding.
func (s *Script) Save() error {
	data, err := encode(s.Text, s.Encoding)
	if err != nil {
		return fmt.Errorf("encode subtitle script %s: %w", s.Path, err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write subtitle script: %w", err)
	}
	return nil
}

func decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingUTF8:
		return string(data), nil
	case EncodingUTF8BOM:
		return string(bytes.TrimPrefix(data, bomUTF8)), nil
	case EncodingUTF16LE:
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		return string(decoded), err
	case EncodingUTF16BE:
		decoder := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		decoded, err := decoder.Bytes(data)
		return string(decoded), err
	}
	return "", fmt.Errorf("unknown encoding %d", enc)
}

func encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingUTF8:
		return []byte(text), nil
	case EncodingUTF8BOM:
		return append(append([]byte{}, bomUTF8...), text...), nil
	case EncodingUTF16LE:
		encoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		return encoder.Bytes([]byte(text))
	case EncodingUTF16BE:
		encoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		return encoder.Bytes([]byte(text))
	}
	return nil, fmt.Errorf("unknown encoding %d", enc)
}
