// Package app wires the engine to its external collaborators: a command
// source feeding intents in, and the journal and snapshot store receiving
// events and book state back out.
package app

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/utsav2110/Orderbook-Deploy/internal/command"
	"github.com/utsav2110/Orderbook-Deploy/internal/engine"
	"github.com/utsav2110/Orderbook-Deploy/internal/journal"
	"github.com/utsav2110/Orderbook-Deploy/internal/snapshot"
)

// App owns one engine and serializes every intent through a single apply
// loop. The engine itself has no locking; this loop is the single writer
// the core requires.
type App struct {
	engine  *engine.Engine
	journal *journal.Journal
	store   *snapshot.Store
	source  io.Reader
}

func New(eng *engine.Engine, j *journal.Journal, store *snapshot.Store, source io.Reader) *App {
	return &App{
		engine:  eng,
		journal: j,
		store:   store,
		source:  source,
	}
}

// Run reads commands until the source is drained or the context is
// canceled, then persists a final snapshot. A reader goroutine and the
// apply loop run under one tomb so either failing tears both down.
func (a *App) Run(ctx context.Context) error {
	t, _ := tomb.WithContext(ctx)
	lines := make(chan string)

	// Scan blocks until a line arrives, so cancellation alone cannot wake
	// the reader; closing the source makes the pending read return. Plain
	// goroutine on purpose: tracking it in the tomb would keep the tomb
	// alive waiting for the very signal that ends it.
	go func() {
		<-t.Dying()
		if closer, ok := a.source.(io.Closer); ok {
			closer.Close()
		}
	}()

	t.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(a.source)
		for scanner.Scan() {
			select {
			case <-t.Dying():
				return nil
			case lines <- scanner.Text():
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case <-t.Dying():
				// The forced close above surfaces as a read error.
				return nil
			default:
				return err
			}
		}
		return nil
	})

	t.Go(func() error {
		for {
			select {
			case <-t.Dying():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				// Rejections are recoverable and already journaled; only
				// collaborator failures (journal, snapshot store) are fatal.
				if err := a.Apply(line); err != nil {
					return err
				}
			}
		}
	})

	runErr := t.Wait()
	if errors.Is(runErr, context.Canceled) {
		// Shutdown via the parent context is a clean exit.
		runErr = nil
	}

	if err := a.persist(); err != nil {
		log.Error().Err(err).Msg("final snapshot failed")
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// Apply executes one command line end to end: parse, mutate, journal,
// snapshot. Malformed or unmatched intents leave the book untouched and
// are recorded as rejections.
func (a *App) Apply(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	intent, err := command.Parse(line)
	if err != nil {
		log.Warn().Str("command", line).Err(err).Msg("rejecting command")
		a.journal.Rejected(line, err)
		return nil
	}

	switch intent.Kind {
	case command.Place:
		result, err := a.engine.Place(intent.Side, intent.Type, intent.Price, intent.Quantity)
		if err != nil {
			a.journal.Rejected(line, err)
			return nil
		}
		a.journal.OrderPlaced(result.Order)
		for _, trade := range result.Trades {
			a.journal.Trade(trade)
		}
		if result.Canceled != nil {
			a.journal.OrderCanceled(*result.Canceled)
		}

	case command.Cancel:
		canceled, err := a.engine.Cancel(intent.OrderID)
		if err != nil {
			a.journal.Rejected(line, err)
			return nil
		}
		a.journal.OrderCanceled(canceled)

	case command.Modify:
		result, err := a.engine.Modify(intent.OrderID, intent.Field, intent.Value)
		if err != nil {
			a.journal.Rejected(line, err)
			return nil
		}
		a.journal.OrderModified(intent.OrderID, intent.Field, intent.Value)
		for _, trade := range result.Trades {
			a.journal.Trade(trade)
		}

	case command.Clear:
		a.engine.Reset()
		if err := a.store.Clear(); err != nil {
			return err
		}
		if err := a.journal.Reset(); err != nil {
			return err
		}
		log.Info().Msg("engine state cleared")
	}

	return a.persist()
}

// persist rewrites the book snapshot and id seed. Called after every
// applied command so an external reader always sees a quiescent book.
func (a *App) persist() error {
	bids := a.engine.SideOrders(engine.Buy)
	asks := a.engine.SideOrders(engine.Sell)
	if err := a.store.WriteBook(bids, asks); err != nil {
		return err
	}
	return a.store.WriteLastID(a.engine.LastAssignedID())
}
