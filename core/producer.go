package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fdchain/observability"
)

// Producer advances the block clock on a fixed schedule.
type Producer struct {
	runtime  *Runtime
	interval time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
	metrics  *observability.ChainMetrics

	mu       sync.Mutex
	lastTick time.Time
}

// NewProducer schedules one block per interval. Intervals below a second are
// rejected because the scheduler runs with second resolution.
func NewProducer(runtime *Runtime, interval time.Duration, logger *slog.Logger) (*Producer, error) {
	if runtime == nil {
		return nil, fmt.Errorf("producer: runtime required")
	}
	if interval < time.Second {
		return nil, fmt.Errorf("producer: interval %s below one second", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Producer{
		runtime:  runtime,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "producer"),
	}
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", interval), p.tick); err != nil {
		return nil, fmt.Errorf("producer: register schedule: %w", err)
	}
	return p, nil
}

// SetMetrics attaches chain metrics updated on every produced block.
func (p *Producer) SetMetrics(m *observability.ChainMetrics) { p.metrics = m }

// Start begins producing blocks in the background.
func (p *Producer) Start() {
	p.cron.Start()
	p.logger.Info("block producer started", slog.Duration("interval", p.interval))
}

// Stop halts the schedule and waits for an in-flight block to finish or ctx
// to expire.
func (p *Producer) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	p.logger.Info("block producer stopped")
}

// ProduceNow advances the clock by one block immediately.
func (p *Producer) ProduceNow() (uint64, error) {
	height, err := p.runtime.AdvanceBlocks(1)
	if err != nil {
		p.metrics.RecordProduceError()
		return 0, err
	}
	now := time.Now()
	p.mu.Lock()
	if !p.lastTick.IsZero() {
		p.metrics.RecordBlockInterval(now.Sub(p.lastTick))
	}
	p.lastTick = now
	p.mu.Unlock()
	p.metrics.SetHeight(height)
	return height, nil
}

func (p *Producer) tick() {
	height, err := p.ProduceNow()
	if err != nil {
		p.logger.Error("block production failed", slog.Any("error", err))
		return
	}
	p.logger.Debug("block produced", slog.Uint64("height", height))
}
