package snowflake

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Custom epoch: January 1, 2025 00:00:00 UTC.
const epoch int64 = 1735689600000

// idOffset lifts every generated id into the 19-digit range.
const idOffset int64 = 1_000_000_000_000_000_000

// Bit layout.
const (
	workerIDBits  = 5
	processIDBits = 5
	sequenceBits  = 12

	maxWorkerID  = (1 << workerIDBits) - 1
	maxProcessID = (1 << processIDBits) - 1
	maxSequence  = (1 << sequenceBits) - 1

	workerIDShift  = sequenceBits + processIDBits
	processIDShift = sequenceBits
	timestampShift = sequenceBits + processIDBits + workerIDBits
)

// Id lengths used across the API.
const (
	IDLength     = 19
	UserIDLength = 18
)

// ID is a generated message, channel or guild id.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Generator produces unique snowflake IDs.
type Generator struct {
	mu        sync.Mutex
	workerID  int64
	processID int64
	sequence  int64
	lastTime  int64
}

// NewGenerator creates a generator with the given worker and process IDs.
// Both must be in the range [0, 31].
func NewGenerator(workerID, processID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, fmt.Errorf("snowflake: workerID must be between 0 and %d", maxWorkerID)
	}
	if processID < 0 || processID > maxProcessID {
		return nil, fmt.Errorf("snowflake: processID must be between 0 and %d", maxProcessID)
	}
	return &Generator{
		workerID:  workerID,
		processID: processID,
	}, nil
}

// Generate returns the next unique ID.
func (g *Generator) Generate() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli() - epoch

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted; spin until next millisecond.
			for now <= g.lastTime {
				now = time.Now().UnixMilli() - epoch
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	id := (now << timestampShift) |
		(g.workerID << workerIDShift) |
		(g.processID << processIDShift) |
		g.sequence

	return ID(id + idOffset)
}

// NextID returns the next ID in its 19-digit string form.
func (g *Generator) NextID() string {
	return g.Generate().String()
}

// ExtractTimestamp returns the wall-clock time embedded in a generated ID.
func ExtractTimestamp(id string) (time.Time, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < idOffset {
		return time.Time{}, fmt.Errorf("snowflake: invalid id %q", id)
	}
	ms := ((n - idOffset) >> timestampShift) + epoch
	return time.UnixMilli(ms).UTC(), nil
}

// DMChannelID builds the channel id shared by two users: the sorted ids
// joined with an underscore.
func DMChannelID(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}

// ValidID reports whether s looks like a message, channel or guild id.
func ValidID(s string) bool {
	return len(s) == IDLength && isDigits(s)
}

// ValidUserID reports whether s has the length of a user id.
func ValidUserID(s string) bool {
	return len(s) == UserIDLength
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
