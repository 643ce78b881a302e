package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
)

// MagicBytes identifies a binary index artifact ("TSIX").
const (
	MagicBytes    uint32 = 0x54534958
	FormatVersion uint32 = 1
	HeaderSize    int    = 32
	FooterSize    int    = 8
)

// Kind tags the payload stored in an artifact.
type Kind uint32

const (
	KindDocumentMap Kind = iota + 1
	KindWeighted
	KindInverted
	KindShard
)

func (k Kind) String() string {
	switch k {
	case KindDocumentMap:
		return "docmap"
	case KindWeighted:
		return "weighted"
	case KindInverted:
		return "inverted"
	case KindShard:
		return "shard"
	default:
		return "unknown"
	}
}

// Format selects the artifact encoding.
type Format string

const (
	FormatBinary Format = "binary"
	FormatText   Format = "text"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatBinary, FormatText:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown index format %q", s)
}

// ManifestFile is the name of the build manifest.
const ManifestFile = "manifest.json"

// FileName returns the artifact file name for kind in format.
func FileName(kind Kind, format Format) string {
	return kind.String() + format.ext()
}

// ShardFileName returns the file name of the term counts of shard id.
func ShardFileName(id int, format Format) string {
	return fmt.Sprintf("%s_%03d%s", KindShard, id, format.ext())
}

func (f Format) ext() string {
	if f == FormatText {
		return ".json"
	}
	return ".tsx"
}

func (f Format) other() Format {
	if f == FormatText {
		return FormatBinary
	}
	return FormatText
}

// Header is the 32-byte header written at the start of a binary artifact.
type Header struct {
	Magic       uint32
	Version     uint32
	Kind        Kind
	PayloadSize uint64
	CreatedAt   int64
}

// Manifest describes a build and the analyzer options queries must reuse.
type Manifest struct {
	BuildID     string           `json:"build_id"`
	CorpusDir   string           `json:"corpus_dir,omitempty"`
	Format      Format           `json:"format"`
	Analyzer    analyzer.Options `json:"analyzer"`
	Documents   int              `json:"documents"`
	Terms       int              `json:"terms"`
	HasWeighted bool             `json:"has_weighted"`
	Shards      int              `json:"shards,omitempty"`
	CreatedAt   string           `json:"created_at"`
}

// FileStore is the storage the artifacts are written to and read from.
type FileStore interface {
	WriteFile(dir, name string, data []byte) error
	ReadFile(dir, name string) ([]byte, error)
	Exists(dir, name string) bool
	Remove(dir, name string) error
}

// Writer serialises index artifacts into a directory. Each artifact replaces
// its sibling in the other format, so a directory only ever holds the
// encoding its manifest names.
type Writer struct {
	store  FileStore
	dir    string
	format Format
}

// NewWriter creates a Writer that writes artifacts into dir.
func NewWriter(store FileStore, dir string, format Format) *Writer {
	return &Writer{store: store, dir: dir, format: format}
}

// Begin removes the manifest of the build being replaced. Until
// WriteManifest succeeds the directory holds no loadable build.
func (w *Writer) Begin() error {
	if err := w.store.Remove(w.dir, ManifestFile); err != nil {
		return fmt.Errorf("retiring previous manifest: %w", err)
	}
	return nil
}

// WriteDocumentMap writes the document map artifact.
func (w *Writer) WriteDocumentMap(docs index.DocumentMap) error {
	return w.write(KindDocumentMap, docs)
}

// WriteWeighted writes the weighted term index artifact.
func (w *Writer) WriteWeighted(weighted index.WeightedIndex) error {
	return w.write(KindWeighted, weighted)
}

// WriteInverted writes the normalized inverted index artifact.
func (w *Writer) WriteInverted(inv index.InvertedIndex) error {
	return w.write(KindInverted, inv)
}

// WriteShard writes the raw term counts of one shard.
func (w *Writer) WriteShard(id int, terms index.FrequencyIndex) error {
	return w.writeFile(KindShard, ShardFileName(id, w.format), ShardFileName(id, w.format.other()), terms)
}

// RemoveArtifact deletes kind in both formats. Used for optional artifacts a
// new build does not write.
func (w *Writer) RemoveArtifact(kind Kind) error {
	for _, f := range []Format{FormatBinary, FormatText} {
		if err := w.store.Remove(w.dir, FileName(kind, f)); err != nil {
			return err
		}
	}
	return nil
}

// WriteManifest writes the manifest last, so a directory with a manifest
// holds a complete build.
func (w *Writer) WriteManifest(m Manifest) error {
	m.Format = w.format
	if m.CreatedAt == "" {
		m.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := w.store.WriteFile(w.dir, ManifestFile, data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func (w *Writer) write(kind Kind, v any) error {
	return w.writeFile(kind, FileName(kind, w.format), FileName(kind, w.format.other()), v)
}

func (w *Writer) writeFile(kind Kind, name, sibling string, v any) error {
	data, err := Encode(kind, w.format, v)
	if err != nil {
		return err
	}
	if err := w.store.WriteFile(w.dir, name, data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.store.Remove(w.dir, sibling); err != nil {
		return fmt.Errorf("removing stale %s: %w", sibling, err)
	}
	return nil
}

// Encode serialises v as an artifact of the given kind and format.
func Encode(kind Kind, format Format, v any) ([]byte, error) {
	if format == FormatText {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", kind, err)
		}
		return data, nil
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", kind, err)
	}
	header := Header{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		Kind:        kind,
		PayloadSize: uint64(payload.Len()),
		CreatedAt:   time.Now().Unix(),
	}
	out := make([]byte, HeaderSize, HeaderSize+payload.Len()+FooterSize)
	binary.LittleEndian.PutUint32(out[0:4], header.Magic)
	binary.LittleEndian.PutUint32(out[4:8], header.Version)
	binary.LittleEndian.PutUint32(out[8:12], uint32(header.Kind))
	binary.LittleEndian.PutUint64(out[16:24], header.PayloadSize)
	binary.LittleEndian.PutUint64(out[24:32], uint64(header.CreatedAt))
	out = append(out, payload.Bytes()...)

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(payload.Bytes()))
	binary.LittleEndian.PutUint32(footer[4:8], MagicBytes)
	return append(out, footer...), nil
}
