// Command lightbulb wires the auction engine's core components together:
// chain registry, pending-auction registry, one worker per chain, the bid
// service, and the message bus. It does not expose an RPC/gRPC/HTTP
// transport surface; that layer lives in a separate binary.
//
// Usage:
//
//	lightbulb --chains 1,2 --gas-limit 30000000 --tick 500ms --flush 250ms
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/radiusxyz/lightbulb/bidservice"
	"github.com/radiusxyz/lightbulb/bus"
	"github.com/radiusxyz/lightbulb/chainreg"
	"github.com/radiusxyz/lightbulb/domain"
	"github.com/radiusxyz/lightbulb/log"
	"github.com/radiusxyz/lightbulb/manager"
	"github.com/radiusxyz/lightbulb/registry"
	"github.com/radiusxyz/lightbulb/worker"
)

var logger = log.Default().Module("cmd")

func main() {
	os.Exit(run(os.Args[1:]))
}

type cliConfig struct {
	chainIds  []uint64
	gasLimit  uint64
	tick      time.Duration
	flush     time.Duration
	busCap    int
	promoteMs time.Duration
}

// run is the actual entry point, returning an exit code. It accepts CLI
// arguments without the program name so it can be tested in isolation.
func run(args []string) int {
	cfg, exit, code := parseFlags(args)
	if exit {
		return code
	}

	logger.Info("lightbulb starting", "chains", cfg.chainIds, "gas_limit", cfg.gasLimit, "tick", cfg.tick, "flush", cfg.flush)

	chains := chainreg.New()
	for _, id := range cfg.chainIds {
		if err := chains.RegisterChain(domain.ChainId(id), cfg.gasLimit, nil); err != nil {
			logger.RejectedErr("register_chain failed", err, "chain_id", id)
			return 1
		}
	}

	reg := registry.New(registry.DefaultConfig(), chains)
	b := bus.New(cfg.busCap)
	mgr := manager.New(reg, b)
	defer mgr.Close()

	workers := make(map[domain.ChainId]*worker.Worker, len(cfg.chainIds))
	flushIntervals := make(map[domain.ChainId]time.Duration, len(cfg.chainIds))
	for _, id := range cfg.chainIds {
		w := worker.New(domain.ChainId(id), b, worker.Config{TickPeriod: cfg.tick})
		workers[domain.ChainId(id)] = w
		mgr.RegisterWorker(domain.ChainId(id), w)
		flushIntervals[domain.ChainId(id)] = cfg.flush
	}
	defer func() {
		for _, w := range workers {
			w.Close()
		}
	}()

	bids := bidservice.New(mgr, flushIntervals)
	defer bids.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runPromotionLoop(ctx, mgr, cfg.chainIds, cfg.promoteMs) })

	<-ctx.Done()
	logger.Info("shutting down")
	_ = g.Wait()
	return 0
}

// runPromotionLoop is an optional internal scheduler: it calls
// StartNextAuction for every configured chain on a fixed cadence,
// behaviorally equivalent to an external caller invoking the same API.
func runPromotionLoop(ctx context.Context, mgr *manager.Manager, chainIds []uint64, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, id := range chainIds {
				if auctionId, ok := mgr.StartNextAuction(domain.ChainId(id)); ok {
					logger.Info("promoted next auction", "chain_id", id, "auction_id", auctionId)
				}
			}
		}
	}
}

func parseFlags(args []string) (cliConfig, bool, int) {
	fs := flag.NewFlagSet("lightbulb", flag.ContinueOnError)
	chainsFlag := fs.String("chains", "1", "comma-separated chain ids to run workers for")
	gasLimit := fs.Uint64("gas-limit", 30_000_000, "gas limit applied to every configured chain")
	tick := fs.Duration("tick", worker.DefaultTickPeriod, "worker tick period")
	flush := fs.Duration("flush", bidservice.DefaultFlushInterval, "bid service flush interval")
	busCap := fs.Int("bus-capacity", bus.DefaultCapacity, "message bus channel capacity")
	promote := fs.Duration("promote-interval", 500*time.Millisecond, "internal start_next_auction polling interval")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, true, 2
	}

	ids, err := parseChainIds(*chainsFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cliConfig{}, true, 2
	}

	return cliConfig{
		chainIds:  ids,
		gasLimit:  *gasLimit,
		tick:      *tick,
		flush:     *flush,
		busCap:    *busCap,
		promoteMs: *promote,
	}, false, 0
}

func parseChainIds(s string) ([]uint64, error) {
	parts := strings.Split(s, ",")
	ids := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("--chains must name at least one chain id")
	}
	return ids, nil
}
