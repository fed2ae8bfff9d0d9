package businessflow

import (
	"strconv"
	"sync"
	"time"
)

// quoteNumberSource issues quote numbers: the UNIX second of issue,
// bumped past the previous number when two quotes land in the same
// second. Numbers stay unique within one process lifetime.
type quoteNumberSource struct {
	mu   sync.Mutex
	last int64
}

func (s *quoteNumberSource) next(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := now.Unix()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return strconv.FormatInt(n, 10)
}
