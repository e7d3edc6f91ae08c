// Package snapshot persists book state between process runs: one CSV per
// side, in book priority order, plus the last assigned order id. Snapshots
// are plain exports, not a write-ahead log; they are rewritten whole at
// quiescent points.
package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
)

const (
	bidsFile   = "bids.csv"
	asksFile   = "asks.csv"
	lastIDFile = "last_id"
)

var header = []string{"ID", "Side", "Type", "Price", "Quantity", "Timestamp"}

// Store reads and writes snapshot files under a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// WriteBook rewrites both side snapshots. Orders must already be in book
// priority order, as returned by the engine's side accessors.
func (s *Store) WriteBook(bids, asks []engine.Order) error {
	if err := s.writeSide(bidsFile, bids); err != nil {
		return err
	}
	return s.writeSide(asksFile, asks)
}

// ReadBook loads both sides. Missing files mean an empty side, not an
// error, so a first run starts from a clean book.
func (s *Store) ReadBook() (bids, asks []engine.Order, err error) {
	bids, err = s.readSide(bidsFile)
	if err != nil {
		return nil, nil, err
	}
	asks, err = s.readSide(asksFile)
	if err != nil {
		return nil, nil, err
	}
	return bids, asks, nil
}

// WriteLastID persists the id counter so ids stay unique across restarts.
func (s *Store) WriteLastID(id uint64) error {
	path := filepath.Join(s.dir, lastIDFile)
	if err := os.WriteFile(path, []byte(strconv.FormatUint(id, 10)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", lastIDFile, err)
	}
	return nil
}

// ReadLastID returns the persisted id counter, or zero if none exists yet.
func (s *Store) ReadLastID() (uint64, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, lastIDFile))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", lastIDFile, err)
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", lastIDFile, err)
	}
	return id, nil
}

// Clear removes all snapshot files.
func (s *Store) Clear() error {
	for _, name := range []string{bidsFile, asksFile, lastIDFile} {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *Store) writeSide(name string, orders []engine.Order) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, order := range orders {
		row := []string{
			strconv.FormatUint(order.ID, 10),
			order.Side.String(),
			order.Type.String(),
			order.LimitPrice.String(),
			strconv.FormatUint(order.Quantity, 10),
			order.Timestamp.Format(time.RFC3339Nano),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

func (s *Store) readSide(name string) ([]engine.Order, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	orders := make([]engine.Order, 0, len(rows)-1)
	for _, row := range rows[1:] { // skip header
		order, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func parseRow(row []string) (engine.Order, error) {
	if len(row) != len(header) {
		return engine.Order{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}

	id, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return engine.Order{}, err
	}
	side, err := engine.ParseSide(row[1])
	if err != nil {
		return engine.Order{}, err
	}
	otype, err := engine.ParseOrderType(row[2])
	if err != nil {
		return engine.Order{}, err
	}
	price, err := decimal.NewFromString(row[3])
	if err != nil {
		return engine.Order{}, err
	}
	quantity, err := strconv.ParseUint(row[4], 10, 64)
	if err != nil {
		return engine.Order{}, err
	}
	timestamp, err := time.Parse(time.RFC3339Nano, row[5])
	if err != nil {
		return engine.Order{}, err
	}

	return engine.Order{
		ID:            id,
		Side:          side,
		Type:          otype,
		LimitPrice:    price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Timestamp:     timestamp,
	}, nil
}
