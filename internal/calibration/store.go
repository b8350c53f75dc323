// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration persists magnetometer calibration results so a pass done
// once can be restored on the next start.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

// SchemaVersion is the current Record layout.
const SchemaVersion = 1

// ErrNotFound is returned by Load when the file does not exist.
var ErrNotFound = errors.New("calibration file not found")

// Record is one stored calibration.
// CorrectedAxis = (raw - offset) * scale, in raw counts.
type Record struct {
	Version    int        `json:"version" yaml:"version"`
	Sensor     string     `json:"sensor" yaml:"sensor"`
	Timestamp  time.Time  `json:"timestamp" yaml:"timestamp"`
	Gain       string     `json:"gain" yaml:"gain"`
	Samples    int        `json:"samples" yaml:"samples"`
	Offset     [3]int16   `json:"offset" yaml:"offset"`
	Scale      [3]float64 `json:"scale" yaml:"scale"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
}

// FromCalibration builds a record for c taken with the given gain and sample
// count.
func FromCalibration(sensor string, g hmc5883l.Gain, samples int, c hmc5883l.Calibration) Record {
	return Record{
		Version:    SchemaVersion,
		Sensor:     sensor,
		Timestamp:  time.Now().UTC(),
		Gain:       g.String(),
		Samples:    samples,
		Offset:     c.Offset,
		Scale:      c.Scale,
		Confidence: Coverage(c),
	}
}

// Calibration returns the driver form of r.
func (r Record) Calibration() hmc5883l.Calibration {
	return hmc5883l.Calibration{Offset: r.Offset, Scale: r.Scale}
}

func (r Record) validate() error {
	if r.Version != SchemaVersion {
		return fmt.Errorf("unsupported calibration version %d (want %d)", r.Version, SchemaVersion)
	}
	for i, s := range r.Scale {
		if s == 0 {
			return fmt.Errorf("scale[%d] is zero", i)
		}
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Save writes r to path. Files ending in .json are written as indented JSON,
// anything else as YAML.
func Save(path string, r Record) error {
	var (
		b   []byte
		err error
	)
	if isJSON(path) {
		b, err = json.MarshalIndent(r, "", "  ")
	} else {
		b, err = yaml.Marshal(r)
	}
	if err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create calibration dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write calibration file: %w", err)
	}
	return nil
}

// Load reads a record written by Save.
func Load(path string) (Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Record{}, fmt.Errorf("read calibration file: %w", err)
	}
	var r Record
	if isJSON(path) {
		err = json.Unmarshal(b, &r)
	} else {
		err = yaml.Unmarshal(b, &r)
	}
	if err != nil {
		return Record{}, fmt.Errorf("decode calibration file %s: %w", path, err)
	}
	if err := r.validate(); err != nil {
		return Record{}, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return r, nil
}
