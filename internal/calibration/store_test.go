// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/relabs-tech/compass/internal/hmc5883l"
)

func TestSaveLoad(t *testing.T) {
	cal := hmc5883l.Calibration{Offset: [3]int16{-12, 40, 7}, Scale: [3]float64{0.0025, 0.003125, 1}}
	rec := FromCalibration("hmc5883l", hmc5883l.Gain1090, 500, cal)

	for _, name := range []string{"cal.yaml", "cal.json", "nested/dir/cal.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Save(path, rec); err != nil {
				t.Fatal(err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Timestamp.Equal(rec.Timestamp) {
				t.Errorf("timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
			}
			got.Timestamp = rec.Timestamp
			if diff := cmp.Diff(rec, got); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
			if got.Calibration() != cal {
				t.Errorf("Calibration() = %+v, want %+v", got.Calibration(), cal)
			}
		})
	}
}

func TestSaveFormat(t *testing.T) {
	dir := t.TempDir()
	rec := FromCalibration("hmc5883l", hmc5883l.Gain230, 10, hmc5883l.IdentityCalibration)

	jsonPath := filepath.Join(dir, "cal.json")
	if err := Save(jsonPath, rec); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "{\n  \"version\": 1") {
		t.Errorf("unexpected JSON layout:\n%s", b)
	}

	yamlPath := filepath.Join(dir, "cal.yaml")
	if err := Save(yamlPath, rec); err != nil {
		t.Fatal(err)
	}
	b, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "gain: Gain230") {
		t.Errorf("unexpected YAML:\n%s", b)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: err = %v, want ErrNotFound", err)
	}

	data := map[string]string{
		"garbage.json": "{not json",
		"version.yaml": "version: 7\nscale: [1, 1, 1]\n",
		"zero.yaml":    "version: 1\nscale: [1, 0, 1]\n",
	}
	for name, content := range data {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
