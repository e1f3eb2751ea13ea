package materialize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/rikai-backend/internal/domain"
	"github.com/yungbote/rikai-backend/internal/modules/learning/gateway"
	"github.com/yungbote/rikai-backend/internal/modules/learning/store"
	"github.com/yungbote/rikai-backend/internal/observability"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

type Outcome string

const (
	// OutcomeHit: the task already had content; nothing was requested.
	OutcomeHit Outcome = "hit"
	// OutcomeCommitted: the response was current and is now stored.
	OutcomeCommitted Outcome = "committed"
	// OutcomeStale: the response arrived after the selection moved on and was dropped.
	OutcomeStale Outcome = "stale"
	// OutcomeFailed: the current request failed; the task stays without content.
	OutcomeFailed Outcome = "failed"
)

// State is what a client polling a task should render.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateUnavailable State = "unavailable"
	StateReady       State = "ready"
)

type Result struct {
	Outcome Outcome
	Seq     uint64
	// Joined is set when the selection attached to a request that was already
	// outstanding instead of issuing a new one.
	Joined  bool
	Content *domain.DetailedContent
	// Err wraps domain.ErrContentUnavailable when Outcome is OutcomeFailed.
	Err error
}

type Key struct {
	CurriculumID string
	TaskID       string
}

type flight struct {
	seq     uint64
	waiters []chan Result
}

type Options struct {
	// Timeout bounds one detail request. Requests outlive the caller's context.
	Timeout time.Duration
}

// Cache decides when task content is generated and whether a finished request
// may write its result. At most one request per task is outstanding. A result
// is committed only if its task is still the selected one and its sequence
// number is the newest issued for that task.
type Cache struct {
	log   *logger.Logger
	gw    gateway.Gateway
	store *store.Store
	opts  Options

	mu       sync.Mutex
	seq      uint64
	selected Key
	hasSel   bool
	latest   map[Key]uint64
	inflight map[Key]*flight
	failed   map[Key]error
	wg       sync.WaitGroup

	// closing is cancelled by Shutdown; every request context follows it.
	closing context.Context
	stop    context.CancelFunc
}

func New(log *logger.Logger, gw gateway.Gateway, st *store.Store, opts Options) *Cache {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	closing, stop := context.WithCancel(context.Background())
	return &Cache{
		log:      log.With("service", "TaskContentCache"),
		gw:       gw,
		store:    st,
		opts:     opts,
		latest:   map[Key]uint64{},
		inflight: map[Key]*flight{},
		failed:   map[Key]error{},
		closing:  closing,
		stop:     stop,
	}
}

// Select makes the task current and ensures its content. The returned channel
// yields exactly one Result and is then closed.
func (c *Cache) Select(ctx context.Context, curriculumID, taskID string) (<-chan Result, error) {
	return c.ensure(ctx, Key{curriculumID, taskID}, false)
}

// Retry is the explicit re-issue entry point after a failure. It applies only
// to the selected task; any other pair fails with domain.ErrNotSelected and
// leaves the selection unchanged.
func (c *Cache) Retry(ctx context.Context, curriculumID, taskID string) (<-chan Result, error) {
	return c.ensure(ctx, Key{curriculumID, taskID}, true)
}

func (c *Cache) State(curriculumID, taskID string) (State, error) {
	k := Key{curriculumID, taskID}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, task, ok := c.store.Task(k.CurriculumID, k.TaskID)
	switch {
	case !ok:
		return "", fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, curriculumID, taskID)
	case task.HasContent():
		return StateReady, nil
	case c.inflight[k] != nil:
		return StateLoading, nil
	case c.failed[k] != nil:
		return StateUnavailable, nil
	default:
		return StateIdle, nil
	}
}

// Wait blocks until every outstanding request has finished or ctx is done.
func (c *Cache) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown clears the selection, cancels outstanding requests and waits for
// them until ctx is done. Their results are stale and never committed.
func (c *Cache) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.hasSel = false
	c.selected = Key{}
	c.mu.Unlock()
	c.stop()
	return c.Wait(ctx)
}

func (c *Cache) ensure(ctx context.Context, k Key, retry bool) (<-chan Result, error) {
	out := make(chan Result, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, task, ok := c.store.Task(k.CurriculumID, k.TaskID)
	if !ok {
		return nil, fmt.Errorf("%w: task %s/%s", domain.ErrNotFound, k.CurriculumID, k.TaskID)
	}
	if retry && (!c.hasSel || c.selected != k) {
		return nil, fmt.Errorf("%w: task %s/%s", domain.ErrNotSelected, k.CurriculumID, k.TaskID)
	}
	c.selected, c.hasSel = k, true

	if task.HasContent() {
		delete(c.failed, k)
		observability.Current().IncContentCache(string(OutcomeHit))
		out <- Result{Outcome: OutcomeHit, Content: task.Content}
		close(out)
		return out, nil
	}
	if f := c.inflight[k]; f != nil {
		observability.Current().IncContentCache("joined")
		f.waiters = append(f.waiters, out)
		return out, nil
	}

	delete(c.failed, k)
	c.seq++
	seq := c.seq
	c.latest[k] = seq
	c.inflight[k] = &flight{seq: seq, waiters: []chan Result{out}}
	observability.Current().IncContentCache("issued")
	c.log.Info("requesting task content",
		"curriculum_id", k.CurriculumID,
		"task_id", k.TaskID,
		"seq", seq,
		"retry", retry,
	)

	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
	release := context.AfterFunc(c.closing, cancel)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer release()
		content, err := c.gw.CreateDetail(reqCtx, cur.Title, task.Title)
		c.finish(reqCtx, k, seq, content, err)
	}()
	return out, nil
}

func (c *Cache) finish(ctx context.Context, k Key, seq uint64, content domain.DetailedContent, genErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.inflight[k]
	if f != nil && f.seq == seq {
		delete(c.inflight, k)
	}
	current := c.hasSel && c.selected == k && c.latest[k] == seq

	res := Result{Seq: seq}
	switch {
	case !current:
		res.Outcome = OutcomeStale
		c.log.Debug("discarding stale task content", "curriculum_id", k.CurriculumID, "task_id", k.TaskID, "seq", seq)
	case genErr != nil:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("%w: %w", domain.ErrContentUnavailable, genErr)
		c.failed[k] = res.Err
		c.log.Warn("task content unavailable", "curriculum_id", k.CurriculumID, "task_id", k.TaskID, "seq", seq, "error", genErr)
	default:
		applied, err := c.store.SetContent(ctx, k.CurriculumID, k.TaskID, content)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("%w: %w", domain.ErrContentUnavailable, err)
			c.failed[k] = res.Err
			break
		}
		_, task, _ := c.store.Task(k.CurriculumID, k.TaskID)
		res.Content = task.Content
		if applied {
			res.Outcome = OutcomeCommitted
		} else {
			// Content appeared by another path; the stored copy wins.
			res.Outcome = OutcomeHit
		}
	}
	if errors.Is(res.Err, context.DeadlineExceeded) {
		c.log.Warn("task content request timed out", "task_id", k.TaskID, "timeout", c.opts.Timeout.String())
	}
	observability.Current().IncContentCache(string(res.Outcome))

	if f == nil || f.seq != seq {
		return
	}
	for i, w := range f.waiters {
		r := res
		r.Joined = i > 0
		w <- r
		close(w)
	}
}
