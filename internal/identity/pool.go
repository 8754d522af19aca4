package identity

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/adapter"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/logger"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store"
	"github.com/Fitsum-Berhane/price-comparison-app/internal/store/schema"
)

// consecutive failures before an identity is demoted
const demotionThreshold = 3

// snapshot is an immutable view of the pool contents. Readers load it via an
// atomic pointer so selection never blocks on a refresh.
type snapshot struct {
	agents  []schema.UserAgent
	proxies []schema.ProxyServer
}

// Pool is the rotating network identity pool: active user agents and proxies
// loaded from the store, handed out per fetch attempt. Proxies that keep
// failing are demoted so they stop being preferred.
type Pool struct {
	store store.Store
	clock adapter.Clock

	snap atomic.Pointer[snapshot]

	mu            sync.Mutex
	rng           *rand.Rand
	failures      map[uint64]int
	agentFailures map[uint64]int
}

// NewPool creates an empty pool; call Refresh before first use
func NewPool(s store.Store, clock adapter.Clock, seed int64) *Pool {
	p := &Pool{
		store:         s,
		clock:         clock,
		rng:           rand.New(rand.NewSource(seed)),
		failures:      make(map[uint64]int),
		agentFailures: make(map[uint64]int),
	}
	p.snap.Store(&snapshot{})
	return p
}

// Refresh reloads active user agents and proxies from the store
func (p *Pool) Refresh(ctx context.Context) error {
	agents, err := p.store.ListActiveUserAgents(ctx)
	if err != nil {
		return err
	}
	proxies, err := p.store.ListActiveProxies(ctx)
	if err != nil {
		return err
	}

	p.snap.Store(&snapshot{agents: agents, proxies: proxies})

	logger.InfoCtx(ctx, "Refreshed identity pool",
		zap.Int("user_agents", len(agents)),
		zap.Int("proxies", len(proxies)))

	return nil
}

func (p *Pool) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// PickUserAgent selects a random active user agent, ok=false when the pool is
// empty
func (p *Pool) PickUserAgent() (schema.UserAgent, bool) {
	snap := p.snap.Load()
	if len(snap.agents) == 0 {
		return schema.UserAgent{}, false
	}
	return snap.agents[p.intn(len(snap.agents))], true
}

// PickProxy selects a random active proxy, preferring ones still marked
// working; ok=false when the pool is empty
func (p *Pool) PickProxy() (schema.ProxyServer, bool) {
	snap := p.snap.Load()
	if len(snap.proxies) == 0 {
		return schema.ProxyServer{}, false
	}

	working := make([]schema.ProxyServer, 0, len(snap.proxies))
	for _, proxy := range snap.proxies {
		if proxy.IsWorking {
			working = append(working, proxy)
		}
	}
	if len(working) > 0 {
		return working[p.intn(len(working))], true
	}

	// Everything is demoted; fall back to any active proxy rather than stall
	return snap.proxies[p.intn(len(snap.proxies))], true
}

// ReportProxySuccess records a successful fetch through the proxy, resetting
// its failure streak and marking it working
func (p *Pool) ReportProxySuccess(ctx context.Context, proxyID uint64, latencyMS *float64) {
	p.mu.Lock()
	delete(p.failures, proxyID)
	p.mu.Unlock()

	if err := p.store.UpdateProxyLiveness(ctx, proxyID, true, latencyMS, p.clock.Now().UTC()); err != nil {
		logger.ErrorCtx(ctx, err, zap.Uint64("proxy_id", proxyID))
	}
}

// ReportProxyFailure records a failed fetch through the proxy. After
// demotionThreshold consecutive failures the proxy is marked not-working.
func (p *Pool) ReportProxyFailure(ctx context.Context, proxyID uint64) {
	p.mu.Lock()
	p.failures[proxyID]++
	demote := p.failures[proxyID] >= demotionThreshold
	p.mu.Unlock()

	if !demote {
		return
	}

	logger.WarnCtx(ctx, "Demoting proxy after repeated failures",
		zap.Uint64("proxy_id", proxyID),
		zap.Int("threshold", demotionThreshold))

	if err := p.store.UpdateProxyLiveness(ctx, proxyID, false, nil, p.clock.Now().UTC()); err != nil {
		logger.ErrorCtx(ctx, err, zap.Uint64("proxy_id", proxyID))
	}

	// Demotion also updates the snapshot view so PickProxy stops preferring it
	snap := p.snap.Load()
	proxies := make([]schema.ProxyServer, len(snap.proxies))
	copy(proxies, snap.proxies)
	for i := range proxies {
		if proxies[i].ID == proxyID {
			proxies[i].IsWorking = false
		}
	}
	p.snap.Store(&snapshot{agents: snap.agents, proxies: proxies})
}

// ReportUserAgentSuccess resets the agent's failure streak
func (p *Pool) ReportUserAgentSuccess(agentID uint64) {
	p.mu.Lock()
	delete(p.agentFailures, agentID)
	p.mu.Unlock()
}

// ReportUserAgentFailure records a failed fetch under the agent. After
// demotionThreshold consecutive failures the agent is blocked.
func (p *Pool) ReportUserAgentFailure(ctx context.Context, agentID uint64) {
	p.mu.Lock()
	p.agentFailures[agentID]++
	block := p.agentFailures[agentID] >= demotionThreshold
	if block {
		delete(p.agentFailures, agentID)
	}
	p.mu.Unlock()

	if !block {
		return
	}

	logger.WarnCtx(ctx, "Blocking user agent after repeated failures",
		zap.Uint64("user_agent_id", agentID),
		zap.Int("threshold", demotionThreshold))

	p.BlockUserAgent(ctx, agentID)
}

// BlockUserAgent deactivates a user agent that retailers keep rejecting
func (p *Pool) BlockUserAgent(ctx context.Context, agentID uint64) {
	if err := p.store.MarkUserAgentActive(ctx, agentID, false); err != nil {
		logger.ErrorCtx(ctx, err, zap.Uint64("user_agent_id", agentID))
		return
	}

	snap := p.snap.Load()
	agents := make([]schema.UserAgent, 0, len(snap.agents))
	for _, agent := range snap.agents {
		if agent.ID != agentID {
			agents = append(agents, agent)
		}
	}
	p.snap.Store(&snapshot{agents: agents, proxies: snap.proxies})
}
