package build

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/logfields"
	"github.com/tomcur/sprokkel/internal/metrics"
	"github.com/tomcur/sprokkel/internal/observability"
)

// Job kinds, used for metrics and logs.
const (
	JobMarkup    = "markup"
	JobEntry     = "entry"
	JobDiscovery = "discovery"
	JobPage      = "page"
)

// job is one unit of render work.
type job struct {
	kind string
	name string
	run  func(ctx context.Context, p *pool) error
}

// pool runs jobs on a fixed number of workers. The queue is unbounded so a running job can
// submit follow-up jobs without blocking. After the first failure no further queued jobs are
// started unless keepGoing is set; jobs already running always finish.
type pool struct {
	workers   int
	keepGoing bool
	recorder  metrics.Recorder

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []job
	pending int // queued plus running
	stopped bool
	errs    []error
}

func newPool(workers int, keepGoing bool, recorder metrics.Recorder) *pool {
	if workers < 1 {
		workers = 1
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	p := &pool{workers: workers, keepGoing: keepGoing, recorder: recorder}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Submit enqueues a job. Jobs submitted after the pool stopped are dropped.
func (p *pool) Submit(j job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.queue = append(p.queue, j)
	p.pending++
	p.cond.Signal()
}

// Run starts the workers and blocks until the queue drains, a job fails (without keepGoing)
// or ctx is canceled. It returns every collected job error as a BuildFailure, or the context
// error when canceled.
func (p *pool) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.stopped = true
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	var wg sync.WaitGroup
	for i := range p.workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(p.errs) == 0 {
		return nil
	}
	// Completion order depends on scheduling; sort so reports are stable.
	sort.SliceStable(p.errs, func(i, j int) bool { return p.errs[i].Error() < p.errs[j].Error() })
	return foundationerrors.NewBuildFailure(p.errs...)
}

func (p *pool) work(ctx context.Context, id int) {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && p.pending > 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped || len(p.queue) == 0 || ctx.Err() != nil {
			p.cond.Broadcast()
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		err := j.run(ctx, p)
		p.finish(ctx, id, j, err)
	}
}

func (p *pool) finish(ctx context.Context, worker int, j job, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFatal
		if ctx.Err() != nil {
			result = metrics.ResultCanceled
		}
		observability.DebugContext(ctx, "Render job failed",
			slog.String("job", j.kind),
			slog.String("name", j.name),
			logfields.Worker(worker),
			logfields.Error(err))
	}
	p.recorder.IncJobResult(j.kind, result)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending--
	if err != nil && ctx.Err() == nil {
		p.errs = append(p.errs, err)
		if !p.keepGoing {
			p.stopped = true
		}
	}
	if p.pending == 0 || p.stopped {
		p.cond.Broadcast()
	}
}
