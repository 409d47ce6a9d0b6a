// Package parquet provides the persistent document store. Metadata is
// held in memory for lookups and persisted as a columnar parquet table,
// one row per chunk. Optional columns keep the distinction between an
// absent field and an empty one across round-trips.
package parquet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/arandu-labs/jurisrag/internal/core/domain"
	"github.com/arandu-labs/jurisrag/internal/core/ports/driven"
	"github.com/arandu-labs/jurisrag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// tableFile is the metadata table name within the store directory.
const tableFile = "documents.parquet"

// row is the columnar layout. Pointer fields map to OPTIONAL columns.
type row struct {
	Handle  int64   `parquet:"name=handle, type=INT64, repetitiontype=REQUIRED"`
	ID      string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"`
	Text    string  `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"`
	Title   *string `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Court   *string `parquet:"name=court, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Code    *string `parquet:"name=code, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Article *string `parquet:"name=article, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Date    *string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Meta    *string `parquet:"name=meta, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// Store is a document store backed by a parquet table on disk.
type Store struct {
	mu   sync.RWMutex
	dir  string
	docs map[domain.Handle]domain.Document
}

// New creates or opens a document store in dir. Existing metadata is
// not read until Load is called.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("parquet: store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("parquet: create store directory: %w", err)
	}
	return &Store{
		dir:  dir,
		docs: make(map[domain.Handle]domain.Document),
	}, nil
}

// Put upserts metadata for a handle. Last write wins.
func (s *Store) Put(_ context.Context, handle domain.Handle, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[handle] = doc
	return nil
}

// Get returns the document for a handle, or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, handle domain.Handle) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[handle]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// Persist writes the table to a temp file and renames it into place.
// Rows are written in handle order so identical content produces an
// identical table.
func (s *Store) Persist(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	final := filepath.Join(s.dir, tableFile)
	tmp := final + ".tmp"

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("parquet: create temp table: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(row), 2)
	if err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("parquet: create writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	handles := make([]domain.Handle, 0, len(s.docs))
	for h := range s.docs {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(a, b int) bool { return handles[a] < handles[b] })

	for _, h := range handles {
		r, err := toRow(h, s.docs[h])
		if err != nil {
			pw.WriteStop()
			fw.Close()
			os.Remove(tmp)
			return err
		}
		if err := pw.Write(r); err != nil {
			pw.WriteStop()
			fw.Close()
			os.Remove(tmp)
			return fmt.Errorf("parquet: write row for handle %d: %w", h, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(tmp)
		return fmt.Errorf("parquet: finalize table: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("parquet: close temp table: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("parquet: swap table: %w", err)
	}
	logger.Debug("Document table persisted: %d rows", len(handles))
	return nil
}

// Load replaces the in-memory table with the on-disk one. A missing
// table leaves the store empty.
func (s *Store) Load(_ context.Context) error {
	path := filepath.Join(s.dir, tableFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("parquet: open table: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(row), 2)
	if err != nil {
		return fmt.Errorf("parquet: create reader: %w", err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	docs := make(map[domain.Handle]domain.Document, total)
	const batch = 256
	for read := 0; read < total; read += batch {
		n := batch
		if read+n > total {
			n = total - read
		}
		rows := make([]row, n)
		if err := pr.Read(&rows); err != nil {
			return fmt.Errorf("parquet: read rows: %w", err)
		}
		for i := range rows {
			handle, doc, err := fromRow(rows[i])
			if err != nil {
				return err
			}
			docs[handle] = doc
		}
	}

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	logger.Debug("Document table loaded: %d rows", total)
	return nil
}

// Close releases resources.
func (s *Store) Close() error { return nil }

func toRow(handle domain.Handle, doc domain.Document) (row, error) {
	r := row{
		Handle:  int64(handle),
		ID:      doc.ID,
		Text:    doc.Text,
		Title:   doc.Title,
		Court:   doc.Court,
		Code:    doc.Code,
		Article: doc.Article,
		Date:    doc.Date,
	}
	if doc.Meta != nil {
		data, err := json.Marshal(doc.Meta)
		if err != nil {
			return row{}, fmt.Errorf("parquet: encode meta for %s: %w", doc.ID, err)
		}
		r.Meta = domain.StrPtr(string(data))
	}
	return r, nil
}

func fromRow(r row) (domain.Handle, domain.Document, error) {
	doc := domain.Document{
		ID:      r.ID,
		Text:    r.Text,
		Title:   r.Title,
		Court:   r.Court,
		Code:    r.Code,
		Article: r.Article,
		Date:    r.Date,
	}
	if r.Meta != nil {
		meta := make(map[string]string)
		if err := json.Unmarshal([]byte(*r.Meta), &meta); err != nil {
			return 0, domain.Document{}, fmt.Errorf("parquet: decode meta for %s: %w", r.ID, err)
		}
		doc.Meta = meta
	}
	return domain.Handle(r.Handle), doc, nil
}
