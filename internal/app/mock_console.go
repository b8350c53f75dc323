// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/relabs-tech/compass/internal/mag"
)

// RunMockConsole prints readings from src to out every interval until ctx is
// done.
func RunMockConsole(ctx context.Context, src mag.Source, out io.Writer, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		r, err := src.Next()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatReading(r))
		fmt.Fprintln(out, formatHeading(r.Summary()))
	}
}
