package assist

import (
	"context"
	"errors"
	"sync"
)

// State is the terminal state of one search run.
type State string

const (
	// StateDone means the run finished and its matches are current.
	StateDone State = "done"
	// StateSuperseded means a newer search started while this one was
	// in flight; its matches must be discarded.
	StateSuperseded State = "superseded"
	// StateCancelled means the caller walked away (request context
	// cancelled). Not an error, just nothing to show.
	StateCancelled State = "cancelled"
)

// Outcome is the result of one search run.
type Outcome struct {
	Generation uint64
	State      State
	Matches    []Match
}

// Searcher serializes content searches against the sidecar under a
// monotonic generation counter. Every new run supersedes the previous
// one: the old run's sidecar call is cancelled and whatever it returns
// is dropped. Only the newest generation's matches ever surface.
type Searcher struct {
	client *Client

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewSearcher wraps a sidecar client. A nil client disables search.
func NewSearcher(client *Client) *Searcher {
	return &Searcher{client: client}
}

// ErrUnavailable is returned when no sidecar is configured.
var ErrUnavailable = errors.New("content search is not configured")

// Run performs one content search. files maps entity ID to content for
// the candidate set. The call blocks until the sidecar answers, the
// caller's ctx ends, or a newer Run supersedes this one.
func (s *Searcher) Run(ctx context.Context, query string, files map[string]string) (Outcome, error) {
	if s.client == nil {
		return Outcome{}, ErrUnavailable
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	matches, err := s.client.Search(runCtx, query, files)
	cancel()

	s.mu.Lock()
	current := gen == s.generation
	s.mu.Unlock()

	switch {
	case !current:
		return Outcome{Generation: gen, State: StateSuperseded}, nil
	case errors.Is(err, context.Canceled):
		return Outcome{Generation: gen, State: StateCancelled}, nil
	case err != nil:
		return Outcome{Generation: gen}, err
	default:
		return Outcome{Generation: gen, State: StateDone, Matches: matches}, nil
	}
}

// Generation returns the newest generation handed out so far.
func (s *Searcher) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
