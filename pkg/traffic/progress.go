package traffic

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/LeoCommon/cellmodem/pkg/log"
	"go.uber.org/zap"
)

type direction int

const (
	upload direction = iota
	download
)

func (d direction) String() string {
	if d == upload {
		return "upload"
	}
	return "download"
}

// progress tracks a transfer and rate limits its reports.
// Reads and writes of the body may happen on another goroutine than the request.
type progress struct {
	sync.Mutex

	dir      direction
	report   ProgressFunc
	interval time.Duration
	cancel   context.CancelFunc

	began       time.Time
	lastReport  time.Time
	transferred int64
	datarates   []float64

	// set when the receiver asked to stop, no further reports are emitted
	stopped bool
	// set when the download limit was reached
	limitReached bool
}

func newProgress(dir direction, report ProgressFunc, interval time.Duration, cancel context.CancelFunc) *progress {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &progress{dir: dir, report: report, interval: interval, cancel: cancel}
}

func (p *progress) snapshot(now time.Time) Report {
	r := Report{Elapsed: now.Sub(p.began), Transferred: p.transferred}

	var rate float64
	if s := r.Elapsed.Seconds(); s > 0 {
		rate = float64(p.transferred) / s
	}

	if p.dir == upload {
		r.DatarateUL = rate
	} else {
		r.DatarateDL = rate
	}
	return r
}

func (p *progress) emit(r Report) {
	if p.report == nil || p.stopped {
		return
	}

	if err := p.report(r); err != nil {
		log.Info("transfer stopped by progress receiver", zap.Stringer("direction", p.dir), zap.Error(err))
		p.stop()
	}
}

func (p *progress) stop() {
	p.stopped = true
	p.cancel()
}

func (p *progress) start() {
	p.Lock()
	defer p.Unlock()

	p.began = time.Now()
	p.lastReport = p.began
	p.emit(Report{})
}

func (p *progress) add(n int) {
	p.Lock()
	defer p.Unlock()

	p.transferred += int64(n)

	now := time.Now()
	if now.Sub(p.lastReport) < p.interval {
		return
	}
	p.lastReport = now

	r := p.snapshot(now)
	p.datarates = append(p.datarates, r.DatarateDL+r.DatarateUL)
	p.emit(r)
}

func (p *progress) isStopped() bool {
	p.Lock()
	defer p.Unlock()

	return p.stopped
}

// finish emits the final report and decides whether the transfer succeeded.
func (p *progress) finish(id string, err error) (Summary, error) {
	p.Lock()
	defer p.Unlock()

	final := p.snapshot(time.Now())
	if !p.stopped {
		p.emit(final)
	}

	summary := summarize(final, p.datarates)

	// the request error is expected when the transfer was ended on purpose
	if _, failed := err.(*ResponseError); failed || (err != nil && !p.stopped && !p.limitReached) {
		log.Error("transfer failed", zap.String("id", id), zap.Stringer("direction", p.dir), zap.Int64("bytes", p.transferred), zap.Error(err))
		return summary, err
	}

	log.Info("transfer finished", zap.String("id", id), zap.Stringer("direction", p.dir),
		zap.Int64("bytes", p.transferred), zap.Duration("elapsed", final.Elapsed), zap.Float64("datarate", summary.Average))
	return summary, nil
}

// payloadReader produces the upload body
type payloadReader struct {
	remaining int64
	progress  *progress
}

// random data defeats compression along the path
var payloadBlock = func() []byte {
	b := make([]byte, 32*1024)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}()

func (r *payloadReader) Read(b []byte) (int, error) {
	if r.remaining <= 0 || r.progress.isStopped() {
		return 0, io.EOF
	}

	n := len(b)
	if int64(n) > r.remaining {
		n = int(r.remaining)
	}
	if n > len(payloadBlock) {
		n = len(payloadBlock)
	}
	copy(b, payloadBlock[:n])

	r.remaining -= int64(n)
	r.progress.add(n)
	return n, nil
}

// discardWriter counts the download body and ends the transfer at the limit
type discardWriter struct {
	remaining int64
	progress  *progress
}

func (w *discardWriter) Write(b []byte) (int, error) {
	n := len(b)
	if int64(n) > w.remaining {
		n = int(w.remaining)
	}
	w.remaining -= int64(n)
	w.progress.add(n)

	if w.remaining <= 0 {
		w.progress.Lock()
		w.progress.limitReached = true
		w.progress.Unlock()
		return n, io.ErrShortWrite
	}
	return n, nil
}
