package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"balancedbag/internal/models"

	// registers the ensemble types with gob
	_ "balancedbag/internal/ensemble"
)

var ErrEmpty = errors.New("artifact has no model")

// Artifact is what the trainer writes and the API loads: the fitted model
// with the decision threshold tuned for it.
type Artifact struct {
	RunID     string
	Algo      string
	Threshold float64
	TrainedAt time.Time
	Model     models.Classifier
}

func Save(path string, a *Artifact) error {
	if a.Model == nil {
		return ErrEmpty
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var a Artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if a.Model == nil {
		return nil, ErrEmpty
	}
	return &a, nil
}
