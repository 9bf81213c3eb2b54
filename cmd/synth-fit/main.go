package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/f1lt3r/subsynth/analysis"
	"github.com/f1lt3r/subsynth/internal/fitcommon"
	"github.com/f1lt3r/subsynth/preset"
	"github.com/f1lt3r/subsynth/synth"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path,omitempty"`
	OutputPreset   string             `json:"output_preset"`
	SampleRate     int                `json:"sample_rate"`
	Note           int                `json:"note"`
	Velocity       int                `json:"velocity"`
	GateSeconds    float64            `json:"gate_seconds"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path (required)")
	presetPath := flag.String("preset", "", "Base preset JSON path (default patch if empty)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write the best fitted preset JSON")
	outputWAV := flag.String("output-wav", "", "Optional path to write the best candidate render")
	reportPath := flag.String("report", "", "Report JSON path (default: <output-preset>.report.json)")
	note := flag.Int("note", 60, "MIDI note to fit")
	velocity := flag.Int("velocity", 100, "MIDI velocity for candidate renders")
	gate := flag.Float64("gate", 1.5, "Gate hold time in seconds per render")
	tail := flag.Float64("tail", 1.0, "Release tail in seconds per render")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 4000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in the report")
	resume := flag.Bool("resume", true, "Resume from a previous best_knobs report when available")
	workers := flag.String("workers", "1", "Parallel optimization workers running independent Mayfly rounds (number or 'auto')")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *referencePath == "" {
		die("--reference is required")
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *gate <= 0 {
		die("gate must be > 0")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	if *topK < 1 {
		*topK = 1
	}
	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	baseParams := synth.NewDefaultParams()
	if *presetPath != "" {
		baseParams, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}

	refRaw, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := fitcommon.ResampleIfNeeded(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(baseParams)
	if *resume {
		resumePath := *reportPath
		if resumePath == "" {
			resumePath = *outputPreset + ".report.json"
		}
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	cfg := &optimizationConfig{
		reference:        ref,
		baseParams:       baseParams,
		defs:             defs,
		initCandidate:    initCand,
		note:             *note,
		velocity:         *velocity,
		gateSeconds:      *gate,
		tailSeconds:      *tail,
		sampleRate:       *sampleRate,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	if err := writeOutputs(cfg, *outputPreset, *outputWAV, *reportPath, *referencePath, *presetPath, result); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score,
		result.bestMetrics.Similarity*100.0, strings.ToLower(*mayflyVariant))
}

func writeOutputs(
	cfg *optimizationConfig,
	outputPreset string,
	outputWAV string,
	reportPath string,
	referencePath string,
	presetPath string,
	result *optimizationResult,
) error {
	if err := preset.SaveJSON(outputPreset, result.bestParams); err != nil {
		return err
	}

	if outputWAV != "" {
		stereo, err := fitcommon.RenderGateStereo(result.bestParams, cfg.sampleRate, cfg.note, cfg.velocity, cfg.gateSeconds, cfg.tailSeconds)
		if err != nil {
			return err
		}
		if err := fitcommon.WriteStereoInterleavedWAV(outputWAV, stereo, cfg.sampleRate); err != nil {
			return err
		}
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = result.best.Vals[i]
	}
	rep := runReport{
		ReferencePath:  referencePath,
		PresetPath:     presetPath,
		OutputPreset:   outputPreset,
		SampleRate:     cfg.sampleRate,
		Note:           cfg.note,
		Velocity:       cfg.velocity,
		GateSeconds:    cfg.gateSeconds,
		DurationSec:    result.elapsed,
		Evaluations:    result.evals,
		MayflyVariant:  strings.ToLower(cfg.mayflyVariant),
		BestScore:      result.bestMetrics.Score,
		BestSimilarity: result.bestMetrics.Similarity,
		BestMetrics:    result.bestMetrics,
		BestKnobs:      knobs,
		TopCandidates:  result.top,
	}
	if reportPath == "" {
		reportPath = outputPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}

	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
