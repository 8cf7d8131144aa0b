package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrMiss is returned by Read when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Key computes a deterministic SHA256 hash of the given inputs.
// Each part is length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is one cached loop outcome.
type Entry struct {
	Job       string    `json:"job"`
	Company   string    `json:"company"`
	State     string    `json:"state"`
	Rounds    int       `json:"rounds"`
	Draft     string    `json:"draft"`
	CreatedAt time.Time `json:"created_at"`
}

// Store keeps entries as JSON files under Dir.
type Store struct {
	Dir string
}

// DefaultDir returns ~/.cache/cvtailor/runs.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.ExpandEnv("$HOME")
	}
	return filepath.Join(home, ".cache", "cvtailor", "runs")
}

// New returns a store rooted at dir, or DefaultDir when dir is empty.
func New(dir string) *Store {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Store{Dir: dir}
}

// Path returns the path to the cache file for a given key
func (s *Store) Path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// Read reads the cached entry for key.
func (s *Store) Read(key string) (Entry, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to parse cache: %w", err)
	}
	return e, nil
}

// Write stores e under key.
func (s *Store) Write(key string, e Entry) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return os.WriteFile(s.Path(key), data, 0o644)
}

// Clear removes every cached entry.
func (s *Store) Clear() error {
	return os.RemoveAll(s.Dir)
}
