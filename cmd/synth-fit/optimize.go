package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/f1lt3r/subsynth/analysis"
	"github.com/f1lt3r/subsynth/internal/fitcommon"
	"github.com/f1lt3r/subsynth/synth"
)

type topCandidate struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

type optimizationConfig struct {
	reference        []float64
	baseParams       *synth.Params
	defs             []knobDef
	initCandidate    candidate
	note             int
	velocity         int
	gateSeconds      float64
	tailSeconds      float64
	sampleRate       int
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
}

type optimizationEval struct {
	metrics analysis.Metrics
	params  *synth.Params
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	bestParams  *synth.Params
	top         []topCandidate
	evals       int
	elapsed     float64
}

type optimizationState struct {
	mu       sync.Mutex
	best     candidate
	bestEval optimizationEval
	top      []topCandidate
}

// runOptimization runs parallel mayfly rounds against the reference until the
// eval or time budget runs out. Each worker owns an independent round; they
// share only the best-so-far state.
func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n",
		initialEval.metrics.Score, initialEval.metrics.Similarity*100.0)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      updateTopCandidates(nil, cfg.topK, 1, initialEval.metrics, cfg.defs, best),
	}

	var evals int64 = 1
	var rounds int64
	var improves int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				if atomic.LoadInt64(&evals) >= int64(cfg.maxEvals) {
					return
				}

				round := int(atomic.AddInt64(&rounds, 1))
				remaining := cfg.maxEvals - int(atomic.LoadInt64(&evals))
				if remaining <= 0 {
					return
				}
				budget := minInt(cfg.mayflyRoundEvals, remaining)
				iters := maxInt(1, budget/(2*cfg.mayflyPop))

				mayflyConfig, err := newMayflyConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mayflyConfig.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mayflyConfig.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return currentBestScore(state) + 1.0
					}
					evalNum, ok := reserveEval(&evals, cfg.maxEvals)
					if !ok {
						return currentBestScore(state) + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					evalRes, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return currentBestScore(state) + 0.8
					}

					improved := false
					var improveNum int64
					bestScore := 0.0

					state.mu.Lock()
					state.top = updateTopCandidates(state.top, cfg.topK, int(evalNum), evalRes.metrics, cfg.defs, cand)
					if evalRes.metrics.Score < state.bestEval.metrics.Score {
						state.best = cloneCandidate(cand)
						state.bestEval = evalRes
						improved = true
						improveNum = atomic.AddInt64(&improves, 1)
					}
					bestScore = state.bestEval.metrics.Score
					state.mu.Unlock()

					if improved {
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n",
							improveNum, evalNum, evalRes.metrics.Score, evalRes.metrics.Similarity*100.0)
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
							evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return evalRes.metrics.Score
				}

				if _, err := runMayfly(mayflyConfig); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestEval.metrics,
		bestParams:  state.bestEval.params,
		top:         state.top,
		evals:       int(atomic.LoadInt64(&evals)),
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate) (optimizationEval, error) {
	params := applyCandidate(cfg.baseParams, cfg.defs, cand)
	mono, err := fitcommon.RenderGateMono(params, cfg.sampleRate, cfg.note, cfg.velocity, cfg.gateSeconds, cfg.tailSeconds)
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics: analysis.Compare(cfg.reference, mono, cfg.sampleRate),
		params:  params,
	}, nil
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = maxInt(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func reserveEval(evals *int64, maxEvals int) (int64, bool) {
	for {
		cur := atomic.LoadInt64(evals)
		if cur >= int64(maxEvals) {
			return 0, false
		}
		if atomic.CompareAndSwapInt64(evals, cur, cur+1) {
			return cur + 1, true
		}
	}
}

func currentBestScore(state *optimizationState) float64 {
	state.mu.Lock()
	score := state.bestEval.metrics.Score
	state.mu.Unlock()
	return score
}

func updateTopCandidates(top []topCandidate, topK int, eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) []topCandidate {
	entry := topCandidate{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		entry.Knobs[d.Name] = cand.Vals[i]
	}
	top = append(top, entry)
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score == top[j].Score {
			return top[i].Eval < top[j].Eval
		}
		return top[i].Score < top[j].Score
	})
	if len(top) > topK {
		top = top[:topK]
	}
	return top
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
