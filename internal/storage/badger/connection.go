package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// Value log garbage collection runs in the background while the database
// is open. Archives accumulate dead versions as analyses are re-run for
// the same URL, so the log needs periodic compaction.
const (
	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.7
)

// BadgerDB holds the database connection shared by the result archive and
// the call audit trail. One process owns one connection; stores layer on
// top of it via Store().
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	stopGC chan struct{}
}

// NewBadgerDB opens the archive database, wiping it first when
// reset_on_startup is set.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing archive (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete archive directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Options = badgerdb.DefaultOptions(config.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database at %s: %w", config.Path, err)
	}

	db := &BadgerDB{
		store:  store,
		logger: logger,
		stopGC: make(chan struct{}),
	}
	common.SafeGo(logger, "badger-gc", db.runGC)

	logger.Debug().Str("path", config.Path).Msg("Archive database opened")
	return db, nil
}

// runGC compacts the value log until Close. ErrNoRewrite just means there
// was nothing worth collecting this round.
func (b *BadgerDB) runGC() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			err := b.store.Badger().RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Warn().Err(err).Msg("Value log GC failed")
			}
		}
	}
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close stops the GC loop and closes the database
func (b *BadgerDB) Close() error {
	if b.stopGC != nil {
		close(b.stopGC)
		b.stopGC = nil
	}
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
