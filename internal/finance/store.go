package finance

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store persists all club ledgers in one JSON file keyed by club name.
// Every mutation reloads the file, applies the change, and writes the whole
// file back atomically, so concurrent writers on the same store never
// interleave partial states.
type Store struct {
	path   string
	logger *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a store backed by the JSON file at path. The file is
// created lazily on first write.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Ledger returns a copy of the named club's ledger. A club with no recorded
// data yields an empty ledger, not an error.
func (s *Store) Ledger(club string) (TenantLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return TenantLedger{}, err
	}
	if l, ok := data[club]; ok {
		return *l, nil
	}
	return TenantLedger{}, nil
}

// AppendEntries appends entries to the named club's ledger and returns them
// with store-assigned IDs and timestamps filled in.
func (s *Store) AppendEntries(club string, entries []LedgerEntry) ([]LedgerEntry, error) {
	// An empty append must leave the dataset untouched; in particular it
	// must not materialize a record for a club that has none yet.
	if len(entries) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return nil, err
	}

	ledger := data[club]
	if ledger == nil {
		ledger = &TenantLedger{}
		data[club] = ledger
	}

	now := s.now().UTC().Format(time.RFC3339)
	recorded := make([]LedgerEntry, len(entries))
	for i, e := range entries {
		e.ID = uuid.NewString()
		e.RecordedAt = now
		if e.Category == "" {
			e.Category = DefaultCategory
		}
		recorded[i] = e
	}
	ledger.Entries = append(ledger.Entries, recorded...)

	if err := s.save(data); err != nil {
		return nil, err
	}
	return recorded, nil
}

// SetBudget replaces the named club's budget wholesale.
func (s *Store) SetBudget(club string, limit float64, description string) (Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return Budget{}, err
	}

	ledger := data[club]
	if ledger == nil {
		ledger = &TenantLedger{}
		data[club] = ledger
	}

	ledger.Budget = &Budget{
		Limit:       limit,
		Description: description,
		UpdatedAt:   s.now().UTC().Format(time.RFC3339),
	}

	if err := s.save(data); err != nil {
		return Budget{}, err
	}
	return *ledger.Budget, nil
}

// load reads the ledger file. A missing file yields an empty dataset. A file
// that exists but does not parse is moved aside so future writes start clean,
// and an empty dataset is returned; recorded data is quarantined, not
// silently destroyed.
func (s *Store) load() (map[string]*TenantLedger, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]*TenantLedger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	data := make(map[string]*TenantLedger)
	if err := json.Unmarshal(raw, &data); err != nil {
		backup := fmt.Sprintf("%s.bak_%d", s.path, s.now().Unix())
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			return nil, fmt.Errorf("quarantine corrupt ledger file: %w", renameErr)
		}
		s.logger.Warn("ledger file is corrupt, moved aside and starting empty",
			zap.String("path", s.path),
			zap.String("backup", backup),
			zap.Error(err))
		return make(map[string]*TenantLedger), nil
	}
	return data, nil
}

// save writes the full dataset to a temp file in the same directory and
// renames it over the target, so readers never observe a half-written file.
func (s *Store) save(data map[string]*TenantLedger) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
