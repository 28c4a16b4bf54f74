package dictionary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrNoChunks is returned when a data directory holds no dict_*.bin files.
var ErrNoChunks = errors.New("no chunk files found")

// ChunkInfo contains metadata about a chunk file
type ChunkInfo struct {
	ChunkID   int
	Filename  string
	WordCount int
}

// Loader reads the static word list from a directory of chunk files.
type Loader struct {
	dirPath  string
	maxWords int
}

// NewLoader creates a loader for dirPath. maxWords of 0 loads everything.
func NewLoader(dirPath string, maxWords int) *Loader {
	return &Loader{
		dirPath:  dirPath,
		maxWords: maxWords,
	}
}

// Available scans the directory for chunk files, sorted by ID.
func (l *Loader) Available() ([]ChunkInfo, error) {
	pattern := filepath.Join(l.dirPath, "dict_*.bin")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for chunk files: %w", err)
	}

	var chunks []ChunkInfo
	for _, file := range files {
		// dict_0001.bin -> 1
		idStr := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "dict_"), ".bin")
		chunkID, err := strconv.Atoi(idStr)
		if err != nil {
			continue
		}
		wordCount, err := chunkWordCount(file)
		if err != nil {
			log.Warnf("Failed to get word count for chunk %s: %v", file, err)
			wordCount = 0
		}
		chunks = append(chunks, ChunkInfo{
			ChunkID:   chunkID,
			Filename:  file,
			WordCount: wordCount,
		})
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkID < chunks[j].ChunkID
	})
	return chunks, nil
}

// chunkWordCount reads the word count from a chunk file's header
func chunkWordCount(filename string) (int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var wordCount int32
	if err := binary.Read(file, binary.LittleEndian, &wordCount); err != nil {
		return 0, err
	}
	return int(wordCount), nil
}

// Load reads chunks in ID order until maxWords entries are collected.
// Unreadable chunks are skipped with a warning.
func (l *Loader) Load() ([]Entry, error) {
	chunks, err := l.Available()
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunks, l.dirPath)
	}
	log.Debugf("Found %d chunk files", len(chunks))

	var entries []Entry
	for _, chunk := range chunks {
		if l.maxWords > 0 && len(entries) >= l.maxWords {
			break
		}
		loaded, err := loadChunkFile(chunk.Filename)
		if err != nil {
			log.Warnf("Failed to load chunk %d: %v", chunk.ChunkID, err)
			continue
		}
		entries = append(entries, loaded...)
		log.Debugf("Chunk %d loaded: %d words", chunk.ChunkID, len(loaded))
	}
	if l.maxWords > 0 && len(entries) > l.maxWords {
		entries = entries[:l.maxWords]
	}
	return entries, nil
}

func loadChunkFile(filename string) ([]Entry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadChunk(bufio.NewReader(file))
}

const chunkPrealloc = 4096

// ReadChunk decodes one chunk: an int32 entry count, then per entry a uint16
// byte length, the word bytes and a uint16 rank (1 is most frequent).
// Ranks are folded onto the 0-255 frequency scale.
func ReadChunk(r io.Reader) ([]Entry, error) {
	var totalEntries int32
	if err := binary.Read(r, binary.LittleEndian, &totalEntries); err != nil {
		return nil, fmt.Errorf("failed to read chunk header: %w", err)
	}
	if totalEntries < 0 || totalEntries > maxChunkWords {
		return nil, fmt.Errorf("invalid word count %d", totalEntries)
	}

	// the header is only trusted up to what the reader actually holds
	entries := make([]Entry, 0, min(int(totalEntries), chunkPrealloc))
	for len(entries) < int(totalEntries) {
		var wordLen uint16
		if err := binary.Read(r, binary.LittleEndian, &wordLen); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read word length: %w", err)
		}
		wordBytes := make([]byte, wordLen)
		if _, err := io.ReadFull(r, wordBytes); err != nil {
			return nil, fmt.Errorf("failed to read word: %w", err)
		}
		var rank uint16
		if err := binary.Read(r, binary.LittleEndian, &rank); err != nil {
			return nil, fmt.Errorf("failed to read rank: %w", err)
		}
		entries = append(entries, Entry{
			Word:      string(wordBytes),
			Frequency: rankToFrequency(rank),
		})
	}
	return entries, nil
}

// WriteChunk encodes entries in the chunk layout read by ReadChunk. Entries
// are ranked by descending frequency.
func WriteChunk(w io.Writer, entries []Entry) error {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Frequency > ranked[j].Frequency
	})

	if err := binary.Write(w, binary.LittleEndian, int32(len(ranked))); err != nil {
		return err
	}
	for _, e := range ranked {
		if len(e.Word) > math.MaxUint16 {
			return fmt.Errorf("word too long: %d bytes", len(e.Word))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(e.Word))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.Word); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, frequencyToRank(e.Frequency)); err != nil {
			return err
		}
	}
	return nil
}

// rankToFrequency maps rank 1 to 255 and rank 65535 to 0.
func rankToFrequency(rank uint16) int {
	if rank == 0 {
		rank = 1
	}
	return (math.MaxUint16 - int(rank) + 1) >> 8
}

func frequencyToRank(freq int) uint16 {
	freq = ClampFrequency(freq)
	return uint16(math.MaxUint16 - freq<<8)
}

// ReadText parses "word [frequency]" lines. Missing frequencies default to 1,
// blank lines and lines starting with '#' are ignored.
func ReadText(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		freq := 1
		if len(fields) > 1 {
			f, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid frequency %q: %w", lineNo, fields[1], err)
			}
			freq = f
		}
		entries = append(entries, Entry{Word: fields[0], Frequency: ClampFrequency(freq)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadFile reads a single dictionary file, detecting its format.
func LoadFile(filename string) ([]Entry, error) {
	format, err := DetectFileFormat(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	switch format {
	case FormatChunk:
		return ReadChunk(bufio.NewReader(file))
	case FormatText:
		return ReadText(file)
	}
	return nil, fmt.Errorf("unsupported format for %s", filename)
}
