package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inasdev/portfolio-dashboard/internal/models"
)

// Store holds the current in-memory positions and persists them to a local
// JSON file on explicit save. The valuation pass only ever reads from it;
// mutations come from the editor endpoints.
type Store struct {
	path string
	log  zerolog.Logger

	mu      sync.RWMutex
	current []models.Position
}

// New creates a store backed by the file at path. If the file is missing or
// unreadable the store starts with the default watchlist instead of failing.
func New(path string, log zerolog.Logger) *Store {
	s := &Store{
		path: path,
		log:  log.With().Str("component", "holdings_store").Logger(),
	}
	if err := s.Reload(); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Could not load holdings, starting with default watchlist")
		s.current = DefaultPositions()
	}
	return s
}

// Positions returns a copy of the current in-memory positions.
func (s *Store) Positions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Position, len(s.current))
	copy(out, s.current)
	return out
}

// Replace swaps the in-memory positions without touching the file. Used by
// import, which on the original dashboard only updates the editor state.
func (s *Store) Replace(positions []models.Position) {
	s.mu.Lock()
	s.current = positions
	s.mu.Unlock()
}

// Reload re-reads the holdings file, replacing the in-memory set only on
// success.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading holdings file: %w", err)
	}
	positions, err := decodeDocument(data)
	if err != nil {
		return err
	}
	s.Replace(positions)
	s.log.Debug().Int("rows", len(positions)).Msg("Loaded holdings")
	return nil
}

// Save persists the given positions to the holdings file and makes them the
// current set. The write goes through a temp file and rename so a crash
// mid-write cannot corrupt the previous file.
func (s *Store) Save(positions []models.Position) error {
	data, err := encodeDocument(positions, false)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".holdings-*.json")
	if err != nil {
		return fmt.Errorf("creating temp holdings file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing holdings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing holdings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing holdings file: %w", err)
	}

	s.Replace(positions)
	s.log.Info().Int("rows", len(positions)).Str("path", s.path).Msg("Saved holdings")
	return nil
}

// Document renders the current positions in the column document shape,
// including rows the user has not finished filling in.
func (s *Store) Document() ([]byte, error) {
	return encodeDocument(s.Positions(), false)
}

// SaveFrom decodes a holdings document from r and persists it. Returns the
// number of rows saved.
func (s *Store) SaveFrom(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading request body: %w", err)
	}
	positions, err := decodeDocument(data)
	if err != nil {
		return 0, err
	}
	if err := s.Save(positions); err != nil {
		return 0, err
	}
	return len(positions), nil
}

// Import parses an uploaded holdings document and, only if it is well formed,
// replaces the in-memory set. A malformed upload returns an error and leaves
// the current positions untouched.
func (s *Store) Import(r io.Reader) ([]models.Position, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	positions, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	s.Replace(positions)
	s.log.Info().Int("rows", len(positions)).Msg("Imported holdings")
	return positions, nil
}

// Export renders the current positions as a downloadable document. Rows
// without a ticker are dropped so a half-filled editor row never ships.
func (s *Store) Export() ([]byte, error) {
	return encodeDocument(s.Positions(), true)
}
