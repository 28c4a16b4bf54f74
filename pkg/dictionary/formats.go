package dictionary

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat identifies a word list file layout.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatChunk              // dict_NNNN.bin ranked binary chunks
	FormatText               // "word [frequency]" lines
)

func (f FileFormat) String() string {
	switch f {
	case FormatChunk:
		return "chunk"
	case FormatText:
		return "text"
	}
	return "unknown"
}

// maxChunkWords is a sanity bound on a chunk header.
const maxChunkWords = 1_000_000

type formatInfo struct {
	extensions []string
	minSize    int64
}

var supportedFormats = map[FileFormat]formatInfo{
	FormatChunk: {extensions: []string{".bin"}, minSize: 4},
	FormatText:  {extensions: []string{".txt", ".dict"}, minSize: 1},
}

// ValidateFileFormat checks size, extension and header of filename against
// the expected format.
func ValidateFileFormat(filename string, expected FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	info, ok := supportedFormats[expected]
	if !ok {
		return fmt.Errorf("unknown format: %v", expected)
	}
	if fileInfo.Size() < info.minSize {
		return fmt.Errorf("file %s is too small (%d bytes) for %s format", filename, fileInfo.Size(), expected)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	validExt := false
	for _, e := range info.extensions {
		if ext == e {
			validExt = true
			break
		}
	}
	if !validExt {
		return fmt.Errorf("file %s has invalid extension %s for %s format (expected: %v)", filename, ext, expected, info.extensions)
	}

	if expected == FormatChunk {
		return validateChunkHeader(filename)
	}
	return nil
}

func validateChunkHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if wordCount < 0 || wordCount > maxChunkWords {
		return fmt.Errorf("invalid word count in %s: %d", filename, wordCount)
	}
	log.Debugf("Chunk %s validated: %d words", filename, wordCount)
	return nil
}

// DetectFileFormat guesses the format from the extension and validates it.
func DetectFileFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	candidate := FormatUnknown
	switch ext {
	case ".bin":
		candidate = FormatChunk
	case ".txt", ".dict":
		candidate = FormatText
	default:
		return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
	}
	if err := ValidateFileFormat(filename, candidate); err != nil {
		return FormatUnknown, err
	}
	return candidate, nil
}
