// Package journal appends engine events to durable, human-auditable logs:
// a structured event log, plus a combined CSV feed external dashboards can
// ingest. Entries are only ever appended; nothing rewrites history except
// an explicit Reset.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
)

const (
	eventsFile   = "events.log"
	combinedFile = "all_info.csv"
)

var csvHeader = []string{"Timestamp", "Type", "Details"}

// Journal owns the event log files for one engine instance.
type Journal struct {
	log zerolog.Logger

	dir     string
	console bool

	logFile *os.File
	csvFile *os.File
	csv     *csv.Writer
}

// Open creates or appends to the journal files under dir. With console set,
// entries are mirrored to stdout in zerolog's console format.
func Open(dir string, console bool) (*Journal, error) {
	j := &Journal{dir: dir, console: console}
	if err := j.open(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) open() error {
	logFile, err := os.OpenFile(filepath.Join(j.dir, eventsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", eventsFile, err)
	}

	csvPath := filepath.Join(j.dir, combinedFile)
	info, statErr := os.Stat(csvPath)
	fresh := statErr != nil || info.Size() == 0

	csvFile, err := os.OpenFile(csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logFile.Close()
		return fmt.Errorf("opening %s: %w", combinedFile, err)
	}

	var out io.Writer = logFile
	if j.console {
		out = zerolog.MultiLevelWriter(logFile, zerolog.ConsoleWriter{Out: os.Stdout})
	}

	j.logFile = logFile
	j.csvFile = csvFile
	j.csv = csv.NewWriter(csvFile)
	j.log = zerolog.New(out).With().Timestamp().Logger()

	if fresh {
		if err := j.csv.Write(csvHeader); err != nil {
			return err
		}
		j.csv.Flush()
	}
	return j.csv.Error()
}

// OrderPlaced records an accepted placement intent, before matching
// results.
func (j *Journal) OrderPlaced(order engine.Order) {
	j.log.Info().
		Uint64("id", order.ID).
		Stringer("side", order.Side).
		Stringer("type", order.Type).
		Str("price", order.LimitPrice.String()).
		Uint64("qty", order.TotalQuantity).
		Msg("order placed")

	j.row("ORDER PLACED", fmt.Sprintf(
		"ID#%d | %s %s | Price: %s | Qty: %d",
		order.ID, order.Side, order.Type, order.LimitPrice, order.TotalQuantity,
	))
}

// Trade records one execution.
func (j *Journal) Trade(trade engine.Trade) {
	j.log.Info().
		Str("trade_id", trade.ID.String()).
		Uint64("buy_id", trade.BuyID).
		Uint64("sell_id", trade.SellID).
		Str("price", trade.Price.String()).
		Uint64("qty", trade.Quantity).
		Msg("trade")

	j.row("TRADE", fmt.Sprintf(
		"BUY#%d <--> SELL#%d | Price: %s | Qty: %d",
		trade.BuyID, trade.SellID, trade.Price, trade.Quantity,
	))
}

// OrderCanceled records a cancellation, user-driven or automatic.
func (j *Journal) OrderCanceled(canceled engine.CanceledOrder) {
	j.log.Info().
		Uint64("id", canceled.Order.ID).
		Stringer("side", canceled.Order.Side).
		Stringer("type", canceled.Order.Type).
		Uint64("qty", canceled.Order.Quantity).
		Str("reason", string(canceled.Reason)).
		Str("cancel_type", string(canceled.Type)).
		Msg("order canceled")

	j.row("ORDER CANCELED", fmt.Sprintf(
		"ID#%d | %s %s | Qty: %d | Reason: %s | Type: %s",
		canceled.Order.ID, canceled.Order.Side, canceled.Order.Type,
		canceled.Order.Quantity, canceled.Reason, canceled.Type,
	))
}

// OrderModified records an accepted amend.
func (j *Journal) OrderModified(id uint64, field engine.ModifyField, value decimal.Decimal) {
	j.log.Info().
		Uint64("id", id).
		Stringer("field", field).
		Str("value", value.String()).
		Msg("order modified")

	j.row("ORDER MODIFIED", fmt.Sprintf("ID#%d | New %s: %s", id, field, value))
}

// Rejected records an intent that failed validation or lookup. The book is
// unchanged by definition when this fires.
func (j *Journal) Rejected(line string, err error) {
	j.log.Warn().
		Str("command", line).
		Err(err).
		Msg("command rejected")

	j.row("REJECTED", fmt.Sprintf("%s | Error: %v", line, err))
}

// Reset truncates every journal file. Used by the CLEAR operation.
func (j *Journal) Reset() error {
	if err := j.Close(); err != nil {
		return err
	}
	for _, name := range []string{eventsFile, combinedFile} {
		if err := os.Truncate(filepath.Join(j.dir, name), 0); err != nil {
			return err
		}
	}
	return j.open()
}

// Close flushes and releases the journal files.
func (j *Journal) Close() error {
	j.csv.Flush()
	if err := j.csv.Error(); err != nil {
		return err
	}
	if err := j.csvFile.Close(); err != nil {
		return err
	}
	return j.logFile.Close()
}

func (j *Journal) row(eventType, details string) {
	if err := j.csv.Write([]string{
		time.Now().Format(time.RFC3339),
		eventType,
		details,
	}); err != nil {
		j.log.Error().Err(err).Msg("csv journal write failed")
		return
	}
	j.csv.Flush()
}
