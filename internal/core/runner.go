package core

import (
	"context"
	"fmt"

	"printssistant/internal/logger"
)

// AdviseOptions are explicit operator overrides. Empty values defer to the
// job and message.
type AdviseOptions struct {
	Fold    string `json:"fold,omitempty"`
	FoldIn  string `json:"fold_in,omitempty"`
	Machine string `json:"machine,omitempty"`
	DebugML bool   `json:"debug_ml,omitempty"`
}

// Advice is the final output of one advisory request.
type Advice struct {
	Intents []string          `json:"intents"`
	Tips    []string          `json:"tips"`
	TipIDs  []string          `json:"tip_ids"`
	Scripts map[string]string `json:"scripts"`
	Nags    []string          `json:"nags,omitempty"`
	Meta    map[string]any    `json:"meta,omitempty"`
}

// Runner ties together Resolver + Router + skill Registry + Aggregator.
type Runner struct {
	Shop      *ShopConfig
	Router    *Router
	Registry  *Registry
	Predictor Predictor
	Logger    logger.Logger
}

type RunnerOption func(*Runner)

func WithRegistry(reg *Registry) RunnerOption {
	return func(r *Runner) { r.Registry = reg }
}

func WithPredictor(p Predictor) RunnerOption {
	return func(r *Runner) { r.Predictor = p }
}

func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) { r.Logger = l }
}

// NewRunner builds a runner for one shop config. The router's device lists
// are extended with the shop's roll and flatbed printers.
func NewRunner(shop *ShopConfig, routerCfg RouterConfig, opts ...RunnerOption) *Runner {
	if shop == nil {
		shop = emptyShop
	}
	r := &Runner{
		Shop:     shop,
		Router:   NewRouter(routerCfg.WithShop(shop)),
		Registry: NewRegistry(),
		Logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logger.Nop()
	}
	return r
}

// AdviseRaw normalizes a loosely-typed job mapping and advises on it.
func (r *Runner) AdviseRaw(ctx context.Context, raw map[string]any, message string, opts AdviseOptions) (*Advice, *JobRecord, error) {
	job, err := Normalize(raw)
	if err != nil {
		return nil, nil, err
	}
	advice, err := r.Advise(ctx, job, message, opts)
	return advice, job, err
}

// Advise resolves job against the shop config, routes it, runs the matching
// skills in intent order and aggregates their output. job is mutated.
func (r *Runner) Advise(ctx context.Context, job *JobRecord, message string, opts AdviseOptions) (*Advice, error) {
	if job == nil {
		return nil, fmt.Errorf("advise: nil job")
	}
	if job.Special == nil {
		job.Special = Special{}
	}
	if opts.Machine != "" {
		job.Special[SpecialMachine] = opts.Machine
		delete(job.Special, SpecialPress)
	}
	Resolve(job, r.Shop)

	var pred *Prediction
	if r.Predictor != nil {
		if p, ok := r.Predictor.Predict(job, message); ok {
			pred = &p
		}
	}

	intents := r.Router.DetectIntents(job, message, pred)
	in := SkillInput{
		Job:     job,
		Message: message,
		Intents: intents,
		Fold:    applyFoldOverrides(FoldPreferences(message), opts),
	}

	var outputs []SkillOutput
	for _, skill := range r.Registry.Plan(intents) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := skill.Run(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("skill %s: %w", skill.Name(), err)
		}
		outputs = append(outputs, out)
	}
	merged := MergeOutputs(outputs)

	advice := &Advice{
		Intents: intents,
		Tips:    merged.Tips,
		TipIDs:  TipIDs(merged.Tips),
		Scripts: merged.Scripts,
		Nags:    merged.Nags,
	}
	if opts.DebugML && pred != nil {
		advice.Meta = map[string]any{"ml_prediction": pred.Label, "prob": round4(pred.Confidence)}
	}

	r.Logger.Debug("advice ready",
		"intents", intents,
		"tips", len(advice.Tips),
		"scripts", len(advice.Scripts),
		"machine", job.Machine(),
		"adjusted", len(job.Adjustments()),
	)
	return advice, nil
}

func applyFoldOverrides(pref FoldPreference, opts AdviseOptions) FoldPreference {
	if opts.Fold != "" {
		pref.Style = Str(opts.Fold)
	}
	if opts.FoldIn != "" {
		pref.FoldIn = Str(opts.FoldIn)
	}
	return pref
}
