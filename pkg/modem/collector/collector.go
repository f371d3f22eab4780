package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultInterval is the minimum time between two polls.
const DefaultInterval = time.Second

// Source is the part of a device decoder the collector polls.
type Source interface {
	Status() (modem.Status, error)
	LTEInfo() (modem.LTEInfo, error)
	GPSLocation() (modem.GPSLocation, error)
}

// Snapshot is one complete poll. Parts that could not be read in this cycle are nil.
// A published snapshot is never modified.
type Snapshot struct {
	Time     time.Time
	Counter  uint64
	Status   *modem.Status
	LTEInfo  *modem.LTEInfo
	Location *modem.GPSLocation
}

// Collector polls a Source and publishes the latest Snapshot.
type Collector struct {
	src      Source
	interval time.Duration
	metrics  *Metrics
	// identifies this collector in the logs
	id string

	lock    sync.RWMutex
	latest  *Snapshot
	counter uint64
}

// New creates a collector polling src at most once per interval. metrics may be nil.
func New(src Source, interval time.Duration, metrics *Metrics) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Collector{
		src:      src,
		interval: interval,
		metrics:  metrics,
		id:       uuid.NewString(),
	}
}

// Latest returns the most recent snapshot or nil before the first poll. It never waits for a poll.
func (c *Collector) Latest() *Snapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.latest
}

// read runs one decoder call. Failed reads leave the part empty, critical ones abort the cycle.
func read[T any](part string, f func() (T, error)) (*T, error) {
	v, err := f()
	if err == nil {
		return &v, nil
	}

	if modem.IsCritical(err) {
		return nil, fmt.Errorf("%s: %w", part, err)
	}

	log.Debug("collector part unavailable", zap.String("part", part), zap.Error(err))
	return nil, nil
}

// Poll reads all parts once and publishes them as a new snapshot.
// Only critical decoder errors are returned.
func (c *Collector) Poll() error {
	status, err := read("status", c.src.Status)
	if err != nil {
		return err
	}
	lteInfo, err := read("lteinfo", c.src.LTEInfo)
	if err != nil {
		return err
	}
	location, err := read("gps", c.src.GPSLocation)
	if err != nil {
		return err
	}

	// build the snapshot completely before taking the lock
	snapshot := &Snapshot{
		Time:     time.Now(),
		Status:   status,
		LTEInfo:  lteInfo,
		Location: location,
	}

	c.lock.Lock()
	c.counter++
	snapshot.Counter = c.counter
	c.latest = snapshot
	c.lock.Unlock()

	c.metrics.observe(snapshot)
	return nil
}

// Run polls until ctx is cancelled or the source fails critically.
// A cancelled context is not an error.
func (c *Collector) Run(ctx context.Context) error {
	log.Info("collector started", zap.String("id", c.id), zap.Duration("interval", c.interval))
	defer log.Info("collector stopped", zap.String("id", c.id))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Poll(); err != nil {
			log.Error("collector stopped by critical error", zap.String("id", c.id), zap.Error(err))
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
