package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/google/renameio/v2"
)

// badge is the on-disk form of the indicator.
type badge struct {
	Updated time.Time `json:"updated"`
	Symbol  Symbol    `json:"symbol"`
	Color   string    `json:"color"`
}

// FileSink is a Sink that persists the badge as a small JSON document, so
// that status bars and other processes can display it.  Writes are atomic.
type FileSink struct {
	mu   sync.Mutex
	path string
	now  func() (t time.Time)
}

// type check
var _ Sink = (*FileSink)(nil)

// NewFileSink returns a sink writing to path.  The file is not touched until
// the first write.
func NewFileSink(path string) (s *FileSink) {
	return &FileSink{
		path: path,
		now:  time.Now,
	}
}

// Path returns the path of the badge file.
func (s *FileSink) Path() (p string) {
	return s.path
}

// SetIndicator implements the Sink interface for *FileSink.
func (s *FileSink) SetIndicator(_ context.Context, sym Symbol) (err error) {
	if !sym.Valid() {
		return fmt.Errorf("symbol %q: %w", sym, errors.ErrBadEnumValue)
	}

	b, err := json.Marshal(&badge{
		Updated: s.now(),
		Symbol:  sym,
		Color:   sym.Color(),
	})
	if err != nil {
		return fmt.Errorf("encoding badge: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = renameio.WriteFile(s.path, b, 0o644)
	if err != nil {
		return fmt.Errorf("writing badge: %w", err)
	}

	return nil
}

// Indicator implements the Sink interface for *FileSink.  A missing file is
// the cleared badge.
func (s *FileSink) Indicator(_ context.Context) (sym Symbol, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Unknown, nil
	} else if err != nil {
		return Unknown, fmt.Errorf("reading badge: %w", err)
	}

	var b badge
	err = json.Unmarshal(data, &b)
	if err != nil {
		return Unknown, fmt.Errorf("decoding badge: %w", err)
	}

	if !b.Symbol.Valid() {
		return Unknown, fmt.Errorf("badge symbol %q: %w", b.Symbol, errors.ErrBadEnumValue)
	}

	return b.Symbol, nil
}

// MemorySink is a Sink that keeps the symbol in memory.  It also counts the
// writes it receives.
type MemorySink struct {
	mu     sync.Mutex
	sym    Symbol
	writes int
}

// type check
var _ Sink = (*MemorySink)(nil)

// NewMemorySink returns a sink displaying sym.
func NewMemorySink(sym Symbol) (s *MemorySink) {
	return &MemorySink{sym: sym}
}

// SetIndicator implements the Sink interface for *MemorySink.
func (s *MemorySink) SetIndicator(_ context.Context, sym Symbol) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sym = sym
	s.writes++

	return nil
}

// Indicator implements the Sink interface for *MemorySink.
func (s *MemorySink) Indicator(_ context.Context) (sym Symbol, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sym, nil
}

// Writes returns the number of SetIndicator calls so far.
func (s *MemorySink) Writes() (n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes
}
