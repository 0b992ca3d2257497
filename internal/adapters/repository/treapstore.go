package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/jonboulle/clockwork"
	"github.com/okian/skins/internal/domain/types"
	"github.com/okian/skins/pkg/metrics"
)

// Treap-based, in-memory MoneyList.
//
// Ordering: winnings DESC, then playerID ASC. In-order traversal yields the
// money list from best to worst. Node priorities are a hash of the player ID
// so the shape does not depend on insertion order.

type standing struct {
	name     string
	winnings int64
	skins    int
	games    int
}

type node struct {
	id       string
	winnings int64
	prio     uint64
	left     *node
	right    *node
}

// less reports whether (aW, aID) ranks before (bW, bID).
func less(aW int64, aID string, bW int64, bID string) bool {
	if aW != bW {
		return aW > bW
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	return y
}

func insert(n *node, id string, winnings int64) *node {
	if n == nil {
		return &node{id: id, winnings: winnings, prio: xxhash.Sum64String(id)}
	}
	if less(winnings, id, n.winnings, n.id) {
		n.left = insert(n.left, id, winnings)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, winnings)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	return n
}

func deleteNode(n *node, id string, winnings int64) *node {
	if n == nil {
		return nil
	}
	switch {
	case winnings == n.winnings && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, winnings)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, winnings)
		}
	case less(winnings, id, n.winnings, n.id):
		n.left = deleteNode(n.left, id, winnings)
	default:
		n.right = deleteNode(n.right, id, winnings)
	}
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TreapStore is an in-memory MoneyList.
type TreapStore struct {
	mu    sync.RWMutex
	root  *node
	byID  map[string]standing
	total int64

	metricsUpdateInterval time.Duration
	clock                 clockwork.Clock

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a money list and starts its metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]standing),
		metricsUpdateInterval: 5 * time.Second,
		clock:                 clockwork.NewRealClock(),
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Credit implements MoneyList.Credit in O(k log n).
func (s *TreapStore) Credit(ctx context.Context, credits ...Credit) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	for _, c := range credits {
		if c.PlayerID == "" || c.Amount < 0 || c.Skins < 0 {
			metrics.RecordErrorByComponent("repository", "invalid_credit")
			return fmt.Errorf("%w: player %q amount %d skins %d", ErrInvalidCredit, c.PlayerID, c.Amount, c.Skins)
		}
	}

	s.mu.Lock()
	for _, c := range credits {
		st, ok := s.byID[c.PlayerID]
		if ok {
			s.root = deleteNode(s.root, c.PlayerID, st.winnings)
		}
		if c.Name != "" {
			st.name = c.Name
		}
		st.winnings += c.Amount
		st.skins += c.Skins
		st.games++
		s.total += c.Amount
		s.byID[c.PlayerID] = st
		s.root = insert(s.root, c.PlayerID, st.winnings)
	}
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateMoneyListPlayers(count)
	return nil
}

func (s *TreapStore) entry(n *node, rank int) types.Entry {
	st := s.byID[n.id]
	return types.Entry{
		Rank:     rank,
		PlayerID: n.id,
		Name:     st.name,
		Winnings: st.winnings,
		Skins:    st.skins,
		Games:    st.games,
	}
}

// Rank returns the standing of a player. Players with equal winnings share
// a rank and ranks are consecutive.
func (s *TreapStore) Rank(ctx context.Context, playerID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[playerID]; !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}

	var (
		out  types.Entry
		rank int
		prev int64
	)
	walk(s.root, func(n *node) bool {
		if rank == 0 || n.winnings != prev {
			rank++
			prev = n.winnings
		}
		if n.id == playerID {
			out = s.entry(n, rank)
			return false
		}
		return true
	})
	return out, nil
}

// TopN returns the top N entries ordered by winnings desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byID)))
	var (
		rank int
		prev int64
	)
	walk(s.root, func(nd *node) bool {
		if rank == 0 || nd.winnings != prev {
			rank++
			prev = nd.winnings
		}
		out = append(out, s.entry(nd, rank))
		return len(out) < n
	})
	return out, nil
}

// Count returns the number of players.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Total returns the sum of all winnings.
func (s *TreapStore) Total(ctx context.Context) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	ticker := s.clock.NewTicker(s.metricsUpdateInterval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.Chan():
				metrics.UpdateMoneyListPlayers(s.Count(ctx))
			}
		}
	}()
}
