package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// Reader loads the artifacts of one build. It only opens files in the
// encoding the build was written in.
type Reader struct {
	store  FileStore
	dir    string
	format Format
}

// NewReader creates a Reader over the artifacts of dir written in format.
func NewReader(store FileStore, dir string, format Format) *Reader {
	return &Reader{store: store, dir: dir, format: format}
}

// Open reads the manifest of dir and returns a Reader bound to the format
// it records.
func Open(store FileStore, dir string) (*Reader, *Manifest, error) {
	m, err := ReadManifest(store, dir)
	if err != nil {
		return nil, nil, err
	}
	format, err := ParseFormat(string(m.Format))
	if err != nil {
		return nil, nil, fmt.Errorf("manifest in %s: %v: %w", dir, err, apperrors.ErrCorruptIndex)
	}
	return NewReader(store, dir, format), m, nil
}

// ReadManifest loads the build manifest of dir.
func ReadManifest(store FileStore, dir string) (*Manifest, error) {
	if !store.Exists(dir, ManifestFile) {
		return nil, fmt.Errorf("%s in %s: %w", ManifestFile, dir, apperrors.ErrIndexNotFound)
	}
	data, err := store.ReadFile(dir, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %v: %w", err, apperrors.ErrCorruptIndex)
	}
	return &m, nil
}

// ReadDocumentMap loads the document map artifact.
func (r *Reader) ReadDocumentMap() (index.DocumentMap, error) {
	var docs index.DocumentMap
	if err := r.read(KindDocumentMap, FileName(KindDocumentMap, r.format), &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ReadWeighted loads the weighted term index artifact.
func (r *Reader) ReadWeighted() (index.WeightedIndex, error) {
	var weighted index.WeightedIndex
	if err := r.read(KindWeighted, FileName(KindWeighted, r.format), &weighted); err != nil {
		return nil, err
	}
	return weighted, nil
}

// ReadInverted loads the normalized inverted index artifact.
func (r *Reader) ReadInverted() (index.InvertedIndex, error) {
	var inv index.InvertedIndex
	if err := r.read(KindInverted, FileName(KindInverted, r.format), &inv); err != nil {
		return nil, err
	}
	if inv == nil {
		inv = make(index.InvertedIndex)
	}
	return inv, nil
}

// ReadShard loads the raw term counts of shard id.
func (r *Reader) ReadShard(id int) (index.FrequencyIndex, error) {
	var terms index.FrequencyIndex
	if err := r.read(KindShard, ShardFileName(id, r.format), &terms); err != nil {
		return nil, err
	}
	if terms == nil {
		terms = make(index.FrequencyIndex)
	}
	return terms, nil
}

func (r *Reader) read(kind Kind, name string, v any) error {
	if !r.store.Exists(r.dir, name) {
		return fmt.Errorf("%s in %s: %w", name, r.dir, apperrors.ErrIndexNotFound)
	}
	data, err := r.store.ReadFile(r.dir, name)
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := Decode(kind, r.format, data, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Decode parses an artifact of the given kind and format into v.
func Decode(kind Kind, format Format, data []byte, v any) error {
	if format == FormatText {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing %s: %v: %w", kind, err, apperrors.ErrCorruptIndex)
		}
		return nil
	}

	if len(data) < HeaderSize+FooterSize {
		return fmt.Errorf("truncated %s file (%d bytes): %w", kind, len(data), apperrors.ErrCorruptIndex)
	}
	header := Header{
		Magic:       binary.LittleEndian.Uint32(data[0:4]),
		Version:     binary.LittleEndian.Uint32(data[4:8]),
		Kind:        Kind(binary.LittleEndian.Uint32(data[8:12])),
		PayloadSize: binary.LittleEndian.Uint64(data[16:24]),
		CreatedAt:   int64(binary.LittleEndian.Uint64(data[24:32])),
	}
	if header.Magic != MagicBytes {
		return fmt.Errorf("bad magic bytes %x: %w", header.Magic, apperrors.ErrCorruptIndex)
	}
	if header.Version != FormatVersion {
		return fmt.Errorf("unsupported version %d: %w", header.Version, apperrors.ErrCorruptIndex)
	}
	if header.Kind != kind {
		return fmt.Errorf("expected %s artifact, found %s: %w", kind, header.Kind, apperrors.ErrCorruptIndex)
	}
	if uint64(len(data)) != uint64(HeaderSize+FooterSize)+header.PayloadSize {
		return fmt.Errorf("payload size mismatch: header %d, file %d: %w",
			header.PayloadSize, len(data), apperrors.ErrCorruptIndex)
	}
	payload := data[HeaderSize : HeaderSize+int(header.PayloadSize)]
	footer := data[HeaderSize+int(header.PayloadSize):]
	if binary.LittleEndian.Uint32(footer[4:8]) != MagicBytes {
		return fmt.Errorf("bad footer magic: %w", apperrors.ErrCorruptIndex)
	}
	if got, want := crc32.ChecksumIEEE(payload), binary.LittleEndian.Uint32(footer[0:4]); got != want {
		return fmt.Errorf("checksum mismatch %08x != %08x: %w", got, want, apperrors.ErrCorruptIndex)
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %v: %w", kind, err, apperrors.ErrCorruptIndex)
	}
	return nil
}
