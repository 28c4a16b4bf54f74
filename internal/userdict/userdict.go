// Package userdict persists the user's own words in SQLite. It implements
// dictionary.Feedback and dictionary.UserSource.
package userdict

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS words (
    key         TEXT NOT NULL,
    locale      TEXT NOT NULL,
    word        TEXT NOT NULL,
    frequency   INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (key, locale)
);

CREATE INDEX IF NOT EXISTS idx_words_locale ON words(locale, frequency);
`

// Store is a SQLite backed user dictionary.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func normalize(word string) (string, string, bool) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", "", false
	}
	return strings.ToLower(word), word, true
}

// WordUsed inserts word for locale at frequency 1 or promotes it by one, up
// to dictionary.MaxFrequency.
func (s *Store) WordUsed(ctx context.Context, word, locale string) error {
	key, display, ok := normalize(word)
	if !ok {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO words (key, locale, word, frequency) VALUES (?, ?, ?, 1)
		ON CONFLICT(key, locale) DO UPDATE SET
			word = excluded.word,
			frequency = MIN(frequency + 1, ?)`,
		key, locale, display, dictionary.MaxFrequency,
	)
	if err != nil {
		return fmt.Errorf("promote %q: %w", word, err)
	}
	log.Debugf("User word %q promoted for %s", display, locale)
	return nil
}

// Entries returns every word stored for locale, most frequent first.
func (s *Store) Entries(ctx context.Context, locale string) ([]dictionary.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT word, frequency FROM words
		WHERE locale = ?
		ORDER BY frequency DESC, key ASC`, locale)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var out []dictionary.Entry
	for rows.Next() {
		e := dictionary.Entry{User: true}
		if err := rows.Scan(&e.Word, &e.Frequency); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Frequency returns the stored frequency of word, 0 when absent.
func (s *Store) Frequency(ctx context.Context, word, locale string) (int, error) {
	key, _, ok := normalize(word)
	if !ok {
		return 0, nil
	}
	var f int
	err := s.db.QueryRowContext(ctx,
		`SELECT frequency FROM words WHERE key = ? AND locale = ?`, key, locale).Scan(&f)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query %q: %w", word, err)
	}
	return f, nil
}

// Import stores entries for locale, replacing existing frequencies.
func (s *Store) Import(ctx context.Context, entries []dictionary.Entry, locale string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (key, locale, word, frequency) VALUES (?, ?, ?, ?)
		ON CONFLICT(key, locale) DO UPDATE SET word = excluded.word, frequency = excluded.frequency`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		key, display, ok := normalize(e.Word)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, key, locale, display, dictionary.ClampFrequency(e.Frequency)); err != nil {
			return fmt.Errorf("import %q: %w", e.Word, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Forget removes word for locale.
func (s *Store) Forget(ctx context.Context, word, locale string) error {
	key, _, ok := normalize(word)
	if !ok {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM words WHERE key = ? AND locale = ?`, key, locale); err != nil {
		return fmt.Errorf("forget %q: %w", word, err)
	}
	return nil
}

var (
	_ dictionary.Feedback   = (*Store)(nil)
	_ dictionary.UserSource = (*Store)(nil)
)
