package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kgalign/kgalign/internal/core/attributes"
	"github.com/kgalign/kgalign/internal/core/candidates"
	"github.com/kgalign/kgalign/internal/core/matching"
	"github.com/kgalign/kgalign/internal/core/model"
	"github.com/kgalign/kgalign/internal/llm"
)

// State tracks where a run is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateProcessing
	StateEvaluating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateProcessing:
		return "processing"
	case StateEvaluating:
		return "evaluating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures one alignment run.
type Options struct {
	DataDir       string
	OutputDir     string
	NumCandidates int
	MaxEntities   int
	Workers       int
	Timeout       time.Duration

	// EntityIDs restricts the run to an explicit set of source entities.
	// Empty means every entity in KG1's attribute table.
	EntityIDs []string
}

// Pipeline orchestrates loading, matching, evaluation and output for one
// alignment run.
type Pipeline struct {
	opts    Options
	matcher *matching.Matcher

	attrs       *attributes.Extractor
	selector    *candidates.Selector
	groundTruth map[string]string

	runID  string
	state  atomic.Int32
	loaded bool

	mu      sync.Mutex
	skipped int
	failed  int
}

func New(matcher *matching.Matcher, opts Options) *Pipeline {
	if opts.NumCandidates <= 0 {
		opts.NumCandidates = 10
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Pipeline{
		opts:    opts,
		matcher: matcher,
		runID:   uuid.New().String(),
	}
}

// UseExtractor injects a pre-built attribute source (e.g. loaded from a
// graph database) instead of the JSON files under DataDir.
func (p *Pipeline) UseExtractor(e *attributes.Extractor) {
	p.attrs = e
}

func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) RunID() string {
	return p.runID
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
}

// Load reads the attribute tables, candidate lists and ground truth from the
// data directory. Missing or malformed required files are fatal.
func (p *Pipeline) Load(ctx context.Context) error {
	if p.loaded {
		return nil
	}
	if p.opts.DataDir == "" {
		// Candidates and ground truth always come from files, even when
		// attributes are read from a graph.
		p.setState(StateFailed)
		return fmt.Errorf("a data directory is required for candidate and ground truth files")
	}
	p.setState(StateLoading)

	if p.attrs == nil {
		attrs, err := attributes.NewExtractor(
			filepath.Join(p.opts.DataDir, "KG1_entity_attributes.json"),
			filepath.Join(p.opts.DataDir, "KG2_entity_attributes.json"),
		)
		if err != nil {
			p.setState(StateFailed)
			return err
		}
		p.attrs = attrs
	}

	selector, err := candidates.NewSelector(filepath.Join(p.opts.DataDir, "alignment_candidates.txt"))
	if err != nil {
		p.setState(StateFailed)
		return err
	}
	p.selector = selector

	gt, err := LoadGroundTruth(filepath.Join(p.opts.DataDir, "ref_pairs"))
	if err != nil {
		// Ground truth is only used for scoring; a run without it still
		// produces results, just no meaningful recall.
		log.Printf("Warning: %v, evaluating without ground truth", err)
		gt = map[string]string{}
	}
	p.groundTruth = gt

	p.loaded = true
	return nil
}

// Run executes the full alignment: load, match every entity, evaluate, and
// persist outputs when an output directory is configured.
func (p *Pipeline) Run(ctx context.Context) ([]model.MatchResult, model.Metrics, error) {
	log.Printf("Starting alignment run %s", p.runID)

	if err := p.Load(ctx); err != nil {
		return nil, model.Metrics{}, err
	}

	p.setState(StateProcessing)
	// Counters are per run; a reused pipeline must not accumulate them.
	p.mu.Lock()
	p.skipped = 0
	p.failed = 0
	p.mu.Unlock()

	results, err := p.processAll(ctx)
	if err != nil {
		p.setState(StateFailed)
		return nil, model.Metrics{}, err
	}

	p.setState(StateEvaluating)
	metrics := Evaluate(results, p.groundTruth)
	metrics.NumCandidates = p.opts.NumCandidates
	p.mu.Lock()
	metrics.SkippedEntities = p.skipped
	metrics.FailedEntities = p.failed
	p.mu.Unlock()

	if p.opts.OutputDir != "" {
		if err := SaveResults(results, filepath.Join(p.opts.OutputDir, "alignment_results.json")); err != nil {
			p.setState(StateFailed)
			return nil, model.Metrics{}, err
		}
		if err := SaveMetrics(metrics, filepath.Join(p.opts.OutputDir, "evaluation_metrics.json")); err != nil {
			p.setState(StateFailed)
			return nil, model.Metrics{}, err
		}
	}

	p.setState(StateDone)
	log.Printf("Run %s done: %d entities, precision %.3f, recall %.3f, f1 %.3f",
		p.runID, metrics.TotalEntities, metrics.Precision, metrics.Recall, metrics.F1)
	return results, metrics, nil
}

// AlignEntity matches a single source entity. The pipeline must be loaded.
func (p *Pipeline) AlignEntity(ctx context.Context, sourceID string) (model.MatchResult, error) {
	if !p.loaded {
		return model.MatchResult{}, fmt.Errorf("pipeline not loaded")
	}
	ent, err := p.attrs.Get(sourceID, attributes.KG1)
	if err != nil {
		return model.MatchResult{}, err
	}
	cands := p.selector.Get(sourceID, p.opts.NumCandidates)
	candEnts := p.attrs.CandidateEntities(targetIDs(cands), attributes.KG2)

	mctx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	return p.matcher.Match(mctx, ent, candEnts)
}

func (p *Pipeline) entityIDs() []string {
	ids := p.opts.EntityIDs
	if len(ids) == 0 {
		ids = p.attrs.IDs(attributes.KG1)
	}
	if p.opts.MaxEntities > 0 && len(ids) > p.opts.MaxEntities {
		ids = ids[:p.opts.MaxEntities]
	}
	return ids
}

func (p *Pipeline) processAll(ctx context.Context) ([]model.MatchResult, error) {
	ids := p.entityIDs()
	log.Printf("Aligning %d entities with %d worker(s)", len(ids), p.opts.Workers)

	if p.opts.Workers <= 1 {
		results := make([]model.MatchResult, 0, len(ids))
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, p.alignOne(ctx, id))
			if (i+1)%10 == 0 {
				log.Printf("Processed %d/%d entities", i+1, len(ids))
			}
		}
		return results, nil
	}

	// Concurrent path: results are append-only under a mutex and sorted by
	// source ID afterwards, since completion order is not submission order.
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan string)

	var mu sync.Mutex
	results := make([]model.MatchResult, 0, len(ids))

	for i := 0; i < p.opts.Workers; i++ {
		g.Go(func() error {
			for id := range jobs {
				res := p.alignOne(gctx, id)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].SourceID < results[j].SourceID })
	return results, nil
}

// alignOne matches one entity and converts every entity-local failure into a
// recorded no-match so the batch keeps going.
func (p *Pipeline) alignOne(ctx context.Context, sourceID string) model.MatchResult {
	ent, err := p.attrs.Get(sourceID, attributes.KG1)
	if err != nil {
		log.Printf("Warning: skipping entity %s: %v", sourceID, err)
		p.note(&p.skipped)
		return model.MatchResult{SourceID: sourceID, Reasoning: "attributes not found"}
	}

	cands := p.selector.Get(sourceID, p.opts.NumCandidates)
	candEnts := p.attrs.CandidateEntities(targetIDs(cands), attributes.KG2)

	mctx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		mctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	res, err := p.matcher.Match(mctx, ent, candEnts)
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Warning: LLM unavailable for entity %s: %v", sourceID, err)
		} else {
			log.Printf("Warning: matching failed for entity %s: %v", sourceID, err)
		}
		p.note(&p.failed)
		return model.MatchResult{SourceID: sourceID, Reasoning: fmt.Sprintf("error: %v", err)}
	}
	return res
}

func (p *Pipeline) note(counter *int) {
	p.mu.Lock()
	*counter++
	p.mu.Unlock()
}

func targetIDs(cands []model.Candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.TargetID
	}
	return ids
}
