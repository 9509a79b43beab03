package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bareyan/kg-explorer/internal/rdf"
)

//go:embed schema.sql
var schemaSQL string

// StoreError is a storage-level failure. Any rewrite that returns a
// StoreError leaves the graph exactly as it was before the rewrite unit
// started; the engine treats it as fatal for the run.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TripleStore is the graph the routine engine mutates. Pattern matching runs
// against in-memory indexes; every mutation is written through to SQLite in
// the same critical section, so memory and disk cannot diverge.
//
// Thread-safety: reads take a shared lock, rewrites take the writer lock for
// the whole delete+insert unit. A Select never observes a half-applied
// rewrite.
type TripleStore struct {
	mu sync.RWMutex
	db *sql.DB

	// triples is the authoritative set, keyed by rendered N-Triples line.
	triples map[string]rdf.Triple

	// Secondary indexes: rendered term -> set of triple keys.
	bySubject   map[string]map[string]struct{}
	byPredicate map[string]map[string]struct{}
	byObject    map[string]map[string]struct{}
}

// Open creates or opens a store backed by the SQLite database at path.
// Use ":memory:" for an ephemeral store. Existing triples are loaded into
// the in-memory indexes.
func Open(path string) (*TripleStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "open", Err: err}
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &StoreError{Op: "pragma", Err: err}
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, &StoreError{Op: "schema", Err: err}
	}

	s := &TripleStore{
		db:          db,
		triples:     make(map[string]rdf.Triple),
		bySubject:   make(map[string]map[string]struct{}),
		byPredicate: make(map[string]map[string]struct{}),
		byObject:    make(map[string]map[string]struct{}),
	}
	if err := s.loadFromDB(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database.
func (s *TripleStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *TripleStore) loadFromDB() error {
	rows, err := s.db.Query("SELECT s, p, o FROM triples")
	if err != nil {
		return &StoreError{Op: "load", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var sub, pred, obj string
		if err := rows.Scan(&sub, &pred, &obj); err != nil {
			return &StoreError{Op: "load", Err: err}
		}
		t, err := rdf.ParseTriple(sub + " " + pred + " " + obj + " .")
		if err != nil {
			return &StoreError{Op: "load", Err: err}
		}
		s.index(t)
	}
	if err := rows.Err(); err != nil {
		return &StoreError{Op: "load", Err: err}
	}
	return nil
}

// Load bulk-inserts an N-Triples document, skolemizing blank nodes.
// Returns the number of triples newly added.
func (s *TripleStore) Load(ctx context.Context, r io.Reader) (int, error) {
	parsed, err := rdf.ReadTriples(r)
	if err != nil {
		return 0, &StoreError{Op: "load", Err: err}
	}
	for i, t := range parsed {
		parsed[i] = rdf.SkolemizeTriple(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []rdf.Triple
	for _, t := range parsed {
		if _, ok := s.triples[t.String()]; !ok {
			fresh = append(fresh, t)
		}
	}
	if err := s.writeThrough(ctx, nil, fresh); err != nil {
		return 0, err
	}
	for _, t := range fresh {
		s.index(t)
	}
	return len(fresh), nil
}

// Count returns the number of triples in the graph.
func (s *TripleStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// DumpTo writes the graph as an N-Triples document in sorted order, so two
// identical graphs always serialize identically.
func (s *TripleStore) DumpTo(w io.Writer) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.triples))
	for k := range s.triples {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := io.WriteString(w, k+"\n"); err != nil {
			return &StoreError{Op: "dump", Err: err}
		}
	}
	return nil
}

// index adds a triple to the in-memory set and secondary indexes.
// Caller holds the writer lock (or has exclusive access during load).
func (s *TripleStore) index(t rdf.Triple) {
	key := t.String()
	if _, ok := s.triples[key]; ok {
		return
	}
	s.triples[key] = t
	addIndex(s.bySubject, t.Subject.String(), key)
	addIndex(s.byPredicate, t.Predicate.String(), key)
	addIndex(s.byObject, t.Object.String(), key)
}

// unindex removes a triple from the in-memory set and secondary indexes.
func (s *TripleStore) unindex(t rdf.Triple) {
	key := t.String()
	if _, ok := s.triples[key]; !ok {
		return
	}
	delete(s.triples, key)
	dropIndex(s.bySubject, t.Subject.String(), key)
	dropIndex(s.byPredicate, t.Predicate.String(), key)
	dropIndex(s.byObject, t.Object.String(), key)
}

func addIndex(idx map[string]map[string]struct{}, term, key string) {
	set := idx[term]
	if set == nil {
		set = make(map[string]struct{})
		idx[term] = set
	}
	set[key] = struct{}{}
}

func dropIndex(idx map[string]map[string]struct{}, term, key string) {
	if set := idx[term]; set != nil {
		delete(set, key)
		if len(set) == 0 {
			delete(idx, term)
		}
	}
}

// writeThrough applies removals then insertions in one SQLite transaction.
// Caller holds the writer lock. On error nothing is committed and the
// in-memory state must not be touched by the caller.
func (s *TripleStore) writeThrough(ctx context.Context, removals, insertions []rdf.Triple) error {
	if len(removals) == 0 && len(insertions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "begin", Err: err}
	}

	for _, t := range removals {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM triples WHERE s = ? AND p = ? AND o = ?",
			t.Subject.String(), t.Predicate.String(), t.Object.String(),
		); err != nil {
			tx.Rollback()
			return &StoreError{Op: "delete", Err: err}
		}
	}
	for _, t := range insertions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO triples (s, p, o) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
			t.Subject.String(), t.Predicate.String(), t.Object.String(),
		); err != nil {
			tx.Rollback()
			return &StoreError{Op: "insert", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}
	return nil
}
