package core

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// SkillInput is what a skill sees: the resolved job, the operator message, the
// routed intents and the fold preferences parsed from the message (after any
// explicit overrides).
type SkillInput struct {
	Job     *JobRecord
	Message string
	Intents []string
	Fold    FoldPreference
}

// HasIntent reports whether name was routed for this job.
func (in SkillInput) HasIntent(name string) bool {
	return slices.Contains(in.Intents, name)
}

// SkillOutput is the contribution of one skill.
type SkillOutput struct {
	Tips    []string
	Scripts map[string]string
	Nags    []string
}

// Skill produces advice for one intent. Skills must treat the job and its
// shop config as read-only.
type Skill interface {
	Name() string
	Run(ctx context.Context, in SkillInput) (SkillOutput, error)
}

// SkillFunc adapts a plain function to Skill.
type SkillFunc struct {
	ID string
	Fn func(ctx context.Context, in SkillInput) (SkillOutput, error)
}

func (f SkillFunc) Name() string { return f.ID }

func (f SkillFunc) Run(ctx context.Context, in SkillInput) (SkillOutput, error) {
	return f.Fn(ctx, in)
}

// Registry maps intent names to skills. Ambient skills run for every job
// after the routed ones. An empty registry is valid.
type Registry struct {
	mu      sync.RWMutex
	skills  map[string]Skill
	ambient []Skill
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: map[string]Skill{}}
}

// Register binds skill to intent, replacing any previous binding.
func (r *Registry) Register(intent string, skill Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[intent] = skill
}

// RegisterAmbient adds a skill that runs on every job.
func (r *Registry) RegisterAmbient(skill Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ambient = append(r.ambient, skill)
}

// Lookup returns the skill bound to intent.
func (r *Registry) Lookup(intent string) (Skill, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[intent]
	return s, ok
}

// Intents returns the registered intent names in sorted order.
func (r *Registry) Intents() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.skills))
}

// Plan returns the skills to run for intents: routed skills in intent order,
// then ambient skills. Intents without a skill are skipped.
func (r *Registry) Plan(intents []string) []Skill {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan := make([]Skill, 0, len(intents)+len(r.ambient))
	for _, intent := range intents {
		if s, ok := r.skills[intent]; ok {
			plan = append(plan, s)
		}
	}
	return append(plan, r.ambient...)
}

// Predictor is the optional label classifier consulted by the router.
// message is the operator hint that came with the job.
type Predictor interface {
	Predict(job *JobRecord, message string) (Prediction, bool)
}
