// Package classifier predicts a product label for a job from its title and
// trim geometry. The model is a small YAML file of per-label centroids; the
// router treats its output as a weak signal only.
package classifier

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"printssistant/internal/core"
)

const (
	defaultKeywordWeight = 2.0
	defaultTemperature   = 1.0
	defaultSizeScaleIn   = 1.0
	pagePenalty          = 1.0
)

// Centroid describes one label.
type Centroid struct {
	Label     string   `yaml:"label" validate:"required"`
	Keywords  []string `yaml:"keywords"`
	LongEdge  float64  `yaml:"long_edge_in" validate:"gte=0"`
	ShortEdge float64  `yaml:"short_edge_in" validate:"gte=0"`
	MinPages  int      `yaml:"min_pages" validate:"gte=0"`
	MaxPages  int      `yaml:"max_pages" validate:"gte=0"`
}

// Model is a centroid classifier.
type Model struct {
	Version       string     `yaml:"version"`
	KeywordWeight float64    `yaml:"keyword_weight" validate:"gte=0"`
	SizeScaleIn   float64    `yaml:"size_scale_in" validate:"gte=0"`
	Temperature   float64    `yaml:"temperature" validate:"gte=0"`
	Labels        []Centroid `yaml:"labels" validate:"required,min=1,dive"`
}

// Features are the model inputs derived from a job.
type Features struct {
	Title     string  `json:"title"`
	W         float64 `json:"w_in"`
	H         float64 `json:"h_in"`
	Pages     int     `json:"pages"`
	LongEdge  float64 `json:"long_edge"`
	ShortEdge float64 `json:"short_edge"`
	Aspect    float64 `json:"aspect"`
}

// FeaturesOf extracts model features; hint is appended to the product title.
func FeaturesOf(job *core.JobRecord, hint string) Features {
	f := Features{Title: strings.TrimSpace(job.ProductText() + " " + hint)}
	if job.TrimSize != nil {
		f.W, f.H = job.TrimSize.W, job.TrimSize.H
		f.LongEdge, f.ShortEdge = job.TrimSize.LongEdge(), job.TrimSize.ShortEdge()
	}
	f.Pages = job.PageCount
	if f.ShortEdge > 0 {
		f.Aspect = math.Round(f.LongEdge/f.ShortEdge*1e4) / 1e4
	}
	return f
}

// Parse decodes and validates a model document, filling defaults.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := validator.New().Struct(&m); err != nil {
		return nil, &core.ConfigFormatError{Source: "model", Reason: err.Error()}
	}
	if m.KeywordWeight == 0 {
		m.KeywordWeight = defaultKeywordWeight
	}
	if m.SizeScaleIn == 0 {
		m.SizeScaleIn = defaultSizeScaleIn
	}
	if m.Temperature == 0 {
		m.Temperature = defaultTemperature
	}
	for i := range m.Labels {
		for j, k := range m.Labels[i].Keywords {
			m.Labels[i].Keywords[j] = strings.ToLower(strings.TrimSpace(k))
		}
	}
	return &m, nil
}

// Load reads a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(data)
}

// Scores returns the raw score per label, in model order.
func (m *Model) Scores(f Features) []float64 {
	title := strings.ToLower(f.Title)
	scores := make([]float64, len(m.Labels))
	for i, c := range m.Labels {
		s := 0.0
		for _, k := range c.Keywords {
			if k != "" && strings.Contains(title, k) {
				s += m.KeywordWeight
			}
		}
		if f.LongEdge > 0 && (c.LongEdge > 0 || c.ShortEdge > 0) {
			s -= math.Hypot(f.LongEdge-c.LongEdge, f.ShortEdge-c.ShortEdge) / m.SizeScaleIn
		}
		if c.MinPages > 0 && f.Pages < c.MinPages {
			s -= pagePenalty
		}
		if c.MaxPages > 0 && f.Pages > c.MaxPages {
			s -= pagePenalty
		}
		scores[i] = s
	}
	return scores
}

// Classify returns the best label and its softmax probability.
func (m *Model) Classify(f Features) (core.Prediction, bool) {
	if m == nil || len(m.Labels) == 0 || (f.Title == "" && f.LongEdge == 0) {
		return core.Prediction{}, false
	}
	probs := softmax(m.Scores(f), m.Temperature)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return core.Prediction{Label: m.Labels[best].Label, Confidence: probs[best]}, true
}

// Predict implements core.Predictor.
func (m *Model) Predict(job *core.JobRecord, message string) (core.Prediction, bool) {
	if job == nil {
		return core.Prediction{}, false
	}
	return m.Classify(FeaturesOf(job, message))
}

func softmax(scores []float64, temperature float64) []float64 {
	top := math.Inf(-1)
	for _, s := range scores {
		top = max(top, s)
	}
	out := make([]float64, len(scores))
	sum := 0.0
	for i, s := range scores {
		out[i] = math.Exp((s - top) / temperature)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
