package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"

	"github.com/tailored-agentic-units/memorable/observability"
)

// Database is the in-memory controller for one JSON file of records of type
// T. The collection is keyed by identity; the key is authoritative.
//
// A Database is not safe for concurrent use, and two Databases on the same
// path can lose each other's updates. Callers sharing one must serialize
// access themselves.
type Database[T any, PT Pointer[T]] struct {
	path      string
	docs      map[string]T
	indent    string
	newID     IDFunc
	observer  observability.Observer
	recovered bool
}

// Open loads the collection stored at path.
//
// A missing or unreadable file, and content that does not decode as a
// collection of T, are not errors: the collection starts empty and "{}" is
// written to path, replacing whatever was there. Recovered reports whether
// anything at path was replaced this way; a missing file is simply created.
// Open fails only when that write fails.
func Open[T any, PT Pointer[T]](path string, opts ...Option) (*Database[T, PT], error) {
	o := newOptions(opts)
	db := &Database[T, PT]{
		path:     path,
		indent:   o.indent,
		newID:    o.newID,
		observer: o.observer,
	}

	data, readErr := os.ReadFile(path)
	docs, err := decodeKeyed[T, PT](data)
	if err != nil {
		reason := err
		if readErr != nil {
			reason = readErr
		}

		docs, err = db.commit(map[string]T{})
		if err != nil {
			return nil, err
		}

		if !errors.Is(readErr, fs.ErrNotExist) {
			db.recovered = true
			db.emit(EventRecover, observability.LevelWarning, map[string]any{
				"path":      path,
				"reason":    reason.Error(),
				"discarded": true,
			})
		}
	}

	db.docs = docs
	db.emit(EventOpen, observability.LevelInfo, map[string]any{
		"path":      path,
		"count":     len(docs),
		"recovered": db.recovered,
	})
	return db, nil
}

// Push stores doc. See PushID.
func (db *Database[T, PT]) Push(doc T) error {
	_, err := db.PushID(doc)
	return err
}

// PushID stores doc and returns its identity.
//
// A doc whose identity is already in the collection is rejected with
// ErrAlreadyExists before any I/O. A doc with an empty identity is assigned
// a fresh one. The file is then re-read, doc is added to what it holds, and
// the result is written back and becomes the in-memory collection. Content
// on disk that no longer decodes is discarded as in Open.
func (db *Database[T, PT]) PushID(doc T) (string, error) {
	p := PT(&doc)

	id := p.GetID()
	if id == "" {
		generated, err := db.newID()
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		if generated == "" {
			return "", errors.New("generate id: empty identity")
		}
		p.SetID(generated)
		id = generated
	}

	if _, exists := db.docs[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, id)
	}

	docs, err := db.reload()
	if err != nil {
		return "", err
	}
	docs[id] = doc

	docs, err = db.commit(docs)
	if err != nil {
		return "", err
	}
	db.docs = docs

	db.emit(EventPush, observability.LevelVerbose, map[string]any{
		"path":  db.path,
		"id":    id,
		"count": len(docs),
	})
	return id, nil
}

// Del removes the document with the given identity and returns it. An
// unknown identity fails with ErrNotFound without touching the file. If the
// rewrite fails the collection is left as it was.
func (db *Database[T, PT]) Del(id string) (T, error) {
	doc, ok := db.docs[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	remaining := maps.Clone(db.docs)
	delete(remaining, id)

	remaining, err := db.commit(remaining)
	if err != nil {
		var zero T
		return zero, err
	}
	db.docs = remaining

	db.emit(EventDelete, observability.LevelVerbose, map[string]any{
		"path":  db.path,
		"id":    id,
		"count": len(remaining),
	})
	return doc, nil
}

// Get returns a copy of the document with the given identity. It never
// performs I/O.
func (db *Database[T, PT]) Get(id string) (T, bool) {
	doc, ok := db.docs[id]
	if !ok {
		var zero T
		return zero, false
	}
	return clonePT[T, PT](id, doc), true
}

// Docs returns a copy of the whole collection keyed by identity.
func (db *Database[T, PT]) Docs() map[string]T {
	docs := make(map[string]T, len(db.docs))
	for id, doc := range db.docs {
		docs[id] = clonePT[T, PT](id, doc)
	}
	return docs
}

// IDs returns every identity in the collection, sorted.
func (db *Database[T, PT]) IDs() []string {
	return slices.Sorted(maps.Keys(db.docs))
}

func (db *Database[T, PT]) Len() int {
	return len(db.docs)
}

func (db *Database[T, PT]) Path() string {
	return db.path
}

// Recovered reports whether Open found content at the path that could not
// be decoded and replaced it with an empty collection.
func (db *Database[T, PT]) Recovered() bool {
	return db.recovered
}

// reload reads the file as it is now. Undecodable content yields an empty
// collection; a file that cannot be read is an error.
func (db *Database[T, PT]) reload() (map[string]T, error) {
	data, err := os.ReadFile(db.path)
	if err != nil {
		db.emit(EventError, observability.LevelError, map[string]any{
			"path":  db.path,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, db.path, err)
	}

	docs, err := decodeKeyed[T, PT](data)
	if err != nil {
		db.emit(EventRecover, observability.LevelWarning, map[string]any{
			"path":      db.path,
			"reason":    err.Error(),
			"discarded": true,
		})
		return map[string]T{}, nil
	}
	return docs, nil
}

// commit writes docs to the file and returns the collection decoded from
// the bytes written, so the caller's records share nothing with what is kept
// in memory and memory holds exactly what the file holds.
func (db *Database[T, PT]) commit(docs map[string]T) (map[string]T, error) {
	data, err := encode(docs, db.indent)
	var committed map[string]T
	if err == nil {
		committed, err = decodeKeyed[T, PT](data)
		if err != nil {
			err = fmt.Errorf("%w: encoded collection does not decode: %v", ErrEncodeFailed, err)
		}
	}
	if err == nil {
		err = writeFile(db.path, data)
	}
	if err != nil {
		db.emit(EventError, observability.LevelError, map[string]any{
			"path":  db.path,
			"error": err.Error(),
		})
		return nil, err
	}
	return committed, nil
}

func (db *Database[T, PT]) emit(typ observability.EventType, level observability.Level, data map[string]any) {
	db.observer.OnEvent(context.Background(), observability.NewEvent(typ, level, eventSource, data))
}

// decodeKeyed decodes a collection and sets each record's identity to the
// key it is stored under. An empty key fails the decode.
func decodeKeyed[T any, PT Pointer[T]](data []byte) (map[string]T, error) {
	docs, err := decode[T](data)
	if err != nil {
		return nil, err
	}
	if _, ok := docs[""]; ok {
		return nil, errEmptyKey
	}
	for id, doc := range docs {
		if p := PT(&doc); p.GetID() != id {
			p.SetID(id)
			docs[id] = doc
		}
	}
	return docs, nil
}

type cloner[T any] interface {
	Clone() T
}

// clonePT copies a stored record. Records without a Clone method are copied
// through a JSON round trip, which is how they are persisted anyway.
func clonePT[T any, PT Pointer[T]](id string, v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return v
	}
	PT(&c).SetID(id)
	return c
}
