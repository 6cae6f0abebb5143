package idgen

import (
	"fmt"
	"sync"
	"time"
)

// ============================================================================
// Snowflake ids
// ============================================================================
//
// Transaction ids are also the ids of the requests that created them and the
// sort key of the newest-first history, so they must be unique and strictly
// increasing within a process even when two are taken in the same
// millisecond.
//
//   0 - 41 bit timestamp - 10 bit worker - 12 bit sequence
//
// ============================================================================

const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
	now       func() time.Time
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

func New(workerID int64) (*Snowflake, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("worker id must be within 0-%d, got %d", maxWorkerID, workerID)
	}
	return &Snowflake{workerID: workerID, now: time.Now}, nil
}

// Init sets up the process-wide generator. Only the first call has an effect.
func Init(workerID int64) error {
	var err error
	once.Do(func() {
		defaultGenerator, err = New(workerID)
	})
	return err
}

func NextID() int64 {
	if defaultGenerator == nil {
		_ = Init(1)
	}
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()

	// clock moved backwards: keep issuing from the last timestamp
	if now < s.timestamp {
		now = s.timestamp
	}

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			for now <= s.timestamp {
				now = s.now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// Time recovers the creation time encoded in an id.
func Time(id int64) time.Time {
	return time.UnixMilli((id >> timestampShift) + epoch)
}

// GenerateTaskID returns a catalog task id: "T" followed by the last four
// digits of a fresh id.
func GenerateTaskID() string {
	return fmt.Sprintf("T%04d", NextID()%10000)
}
