package storage

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"printssistant/internal/core"
	"printssistant/pkg/utils"
)

// SessionVersion tags the session snapshot format.
const SessionVersion = "printssistant-1"

const scriptExt = ".jsx"

// OutputStorage writes generated scripts under a base directory.
type OutputStorage struct {
	BaseDir string
}

// NewOutputStorage creates a storage handler rooted at baseDir.
func NewOutputStorage(baseDir string) *OutputStorage {
	return &OutputStorage{BaseDir: baseDir}
}

// SavedScript is one file written by SaveScripts.
type SavedScript struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
}

// SaveScript writes text to <name>.jsx and returns the file path.
func (s *OutputStorage) SaveScript(name, text string) (string, error) {
	if err := os.MkdirAll(s.BaseDir, 0o775); err != nil {
		return "", err
	}
	path := filepath.Join(s.BaseDir, sanitize(name)+scriptExt)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveScripts writes every script in name order.
func (s *OutputStorage) SaveScripts(scripts map[string]string) ([]SavedScript, error) {
	saved := make([]SavedScript, 0, len(scripts))
	for _, name := range slices.Sorted(maps.Keys(scripts)) {
		path, err := s.SaveScript(name, scripts[name])
		if err != nil {
			return saved, fmt.Errorf("save script %s: %w", name, err)
		}
		sum, err := utils.HashFile(path)
		if err != nil {
			return saved, err
		}
		saved = append(saved, SavedScript{Name: name, Path: path, Checksum: sum})
	}
	return saved, nil
}

// Session is a snapshot of one advisory run, saved so an operator can resume
// a checklist later.
type Session struct {
	ID          string          `json:"id"`
	Timestamp   string          `json:"timestamp"`
	Message     string          `json:"message"`
	Intents     []string        `json:"intents"`
	JobSpec     core.JobRecord  `json:"jobspec"`
	Tips        []string        `json:"tips"`
	TipsChecked map[string]bool `json:"tips_checked"`
	ShopChecked map[string]bool `json:"shop_checked"`
	Version     string          `json:"version"`
}

// NewSession builds a snapshot for job and its advice.
func NewSession(job *core.JobRecord, message string, advice *core.Advice) Session {
	s := Session{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Message:     message,
		Intents:     []string{},
		JobSpec:     job.Public(),
		Tips:        []string{},
		TipsChecked: map[string]bool{},
		ShopChecked: map[string]bool{},
		Version:     SessionVersion,
	}
	if advice != nil {
		s.Intents = append(s.Intents, advice.Intents...)
		s.Tips = append(s.Tips, advice.Tips...)
		for _, id := range advice.TipIDs {
			s.TipsChecked[id] = false
		}
	}
	return s
}

// SaveSession writes s as indented JSON.
func SaveSession(path string, s Session) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o775); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadSession reads a snapshot written by SaveSession.
func LoadSession(path string) (Session, error) {
	var s Session
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

// sanitize removes special characters from script names for filenames
func sanitize(name string) string {
	clean := ""
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean += string(r)
		}
	}
	if clean == "" {
		return "script"
	}
	return clean
}
