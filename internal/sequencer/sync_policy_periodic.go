package sequencer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SyncPolicyPeriodic flushes the sequencer files after some number of published transactions, or after some time
// interval has passed. The time based flush runs on a background go routine.
type SyncPolicyPeriodic struct {
	mutex sync.Mutex

	syncAfterTxnCount int
	syncEvery         time.Duration

	syncer            Syncer
	logger            *slog.Logger
	syncTicker        *time.Ticker
	shutdown          chan struct{}
	shutdownWaitGroup sync.WaitGroup
	stopped           bool

	unsyncedTxnCount int
}

// SyncPolicyPeriodic implements SyncPolicy.
var _ SyncPolicy = (*SyncPolicyPeriodic)(nil)

// NewSyncPolicyPeriodic creates a new SyncPolicyPeriodic.
func NewSyncPolicyPeriodic(syncAfterTxnCount int, syncEvery time.Duration) *SyncPolicyPeriodic {
	return &SyncPolicyPeriodic{
		syncAfterTxnCount: max(syncAfterTxnCount, 1),
		syncEvery:         max(syncEvery, 100*time.Microsecond),
	}
}

func (s *SyncPolicyPeriodic) Startup(syncer Syncer, logger *slog.Logger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.syncer = syncer
	s.logger = logger
	s.syncTicker = time.NewTicker(s.syncEvery)
	s.shutdown = make(chan struct{})
	s.stopped = false
	s.shutdownWaitGroup.Add(1)
	go s.backgroundTask(s.syncTicker.C, s.shutdown)
	return nil
}

func (s *SyncPolicyPeriodic) TransactionPublished(txn uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.unsyncedTxnCount++
	if s.unsyncedTxnCount < s.syncAfterTxnCount {
		return nil
	}

	if err := s.syncNow(); err != nil {
		return err
	}
	return nil
}

func (s *SyncPolicyPeriodic) Shutdown() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.shutdown == nil || s.stopped {
		return nil
	}
	s.stopped = true
	s.syncTicker.Stop()
	close(s.shutdown)

	// We need to unlock the mutex while waiting for the shutdown, otherwise we run the risk of a deadlock.
	s.mutex.Unlock()
	s.shutdownWaitGroup.Wait()
	s.mutex.Lock()

	if err := s.syncNow(); err != nil {
		return err
	}
	return nil
}

func (s *SyncPolicyPeriodic) backgroundTask(ticks <-chan time.Time, shutdown <-chan struct{}) {
	defer s.shutdownWaitGroup.Done()

	for {
		select {
		case <-ticks:
			s.periodicSync()
		case <-shutdown:
			return
		}
	}
}

func (s *SyncPolicyPeriodic) periodicSync() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.syncNow(); err != nil {
		s.logger.Error("Periodic sync of the sequencer failed.", "error", err)
		return
	}
}

func (s *SyncPolicyPeriodic) syncNow() error {
	if s.unsyncedTxnCount == 0 {
		return nil
	}

	if err := s.syncer.Sync(); err != nil {
		return fmt.Errorf("flushing sequencer files: %w", err)
	}
	s.unsyncedTxnCount = 0
	return nil
}
