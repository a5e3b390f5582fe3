// Package dataset maintains the ordered, append-only collection of training
// examples, persisted as pretty-printed JSON at a caller-specified path.
package dataset

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"neuroforecast/internal/model"
)

// Dataset is an ordered sequence of training examples bound to its storage
// path. Insertion order is preserved and never reordered or deduplicated.
// Single-owner: no concurrency guarantee is provided.
type Dataset struct {
	path     string
	examples []model.TrainingExample
}

// Load reads the persisted dataset at path. A missing file is not an error:
// the dataset starts empty and the file is created immediately. Structurally
// invalid contents are fatal for the load and propagated to the caller.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		d := &Dataset{path: path}
		if err := d.write(nil); err != nil {
			return nil, fmt.Errorf("dataset: create %s: %w", path, err)
		}
		log.Printf("[dataset] no prior dataset at %s, created empty", path)
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	var examples []model.TrainingExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("dataset: malformed contents in %s: %w", path, err)
	}
	log.Printf("[dataset] loaded %d examples from %s", len(examples), path)
	return &Dataset{path: path, examples: examples}, nil
}

// Examples returns the ordered example sequence.
func (d *Dataset) Examples() []model.TrainingExample { return d.examples }

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.examples) }

// Path returns the storage path this dataset is bound to.
func (d *Dataset) Path() string { return d.path }

// Append reads the current persisted contents (or empty if none), appends the
// new example preserving all prior entries and their order, and writes the
// full sequence back. The write is atomic from the caller's perspective: no
// partial dataset is ever visible on failure.
func (d *Dataset) Append(ex model.TrainingExample) error {
	current, err := readExamples(d.path)
	if err != nil {
		return err
	}
	current = append(current, ex)
	if err := d.write(current); err != nil {
		return err
	}
	d.examples = current
	log.Printf("[dataset] appended example #%d (%s %s, %d candles, %s)",
		len(current), ex.Input.Symbol, ex.Input.Interval, len(ex.Input.Candles), ex.Output.Position)
	return nil
}

func readExamples(path string) ([]model.TrainingExample, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var examples []model.TrainingExample
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("dataset: malformed contents in %s: %w", path, err)
	}
	return examples, nil
}

// write marshals the full sequence pretty-printed and replaces the file via
// temp-file + rename so readers never observe a partial dataset.
func (d *Dataset) write(examples []model.TrainingExample) error {
	if examples == nil {
		examples = []model.TrainingExample{}
	}
	data, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return fmt.Errorf("dataset: marshal: %w", err)
	}

	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: mkdir %s: %w", dir, err)
		}
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		return fmt.Errorf("dataset: rename %s: %w", tmp, err)
	}
	return nil
}
