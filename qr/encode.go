// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package qr

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/skip2/go-qrcode"

	"github.com/gitzipqr/gitzipqr/ioutil/atomic"
	"github.com/gitzipqr/gitzipqr/log"
)

// EncodeJob is one unit of work for the encoder pool: render Text into a PNG
// QR symbol at OutPath. Jobs carry no reference to one another and no
// shared mutable state, so they may run on any worker in any order.
type EncodeJob struct {
	Index   int
	OutPath string
	Text    string
}

// EncodeResult reports the outcome of one EncodeJob.
type EncodeResult struct {
	Index   int
	OutPath string
	Err     error
}

// EncodeOptions configures the encoder pool's rendering parameters.
type EncodeOptions struct {
	Level   ECL
	Margin  int
	Workers int
}

// defaultedWorkers returns o.Workers if positive, otherwise one worker per
// CPU, matching the spec's W = max(1, cpu_count).
func (o EncodeOptions) defaultedWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}

	w := runtime.NumCPU()
	if w < 1 {
		w = 1
	}

	return w
}

// ProgressFunc is invoked after each job completes with the running
// completed/total counts, regardless of success or failure.
type ProgressFunc func(completed, total int)

// EncodeAll renders every job to its output PNG using a fixed-size worker
// pool, reporting progress as jobs complete. It returns one EncodeResult per
// input job, in the same order as jobs (not completion order): EncodeAll
// places each result at the slice position of the job whose Index it carries.
//
// ctx is checked between jobs, not pre-empted mid-render: a worker that has
// already started rendering a symbol finishes it, but will not pick up
// another job once ctx is done. A cancellation surfaces as an EncodeResult
// carrying ctx.Err() for every job a worker had not yet started, which the
// existing error-aggregation below turns into a single returned error.
func EncodeAll(ctx context.Context, jobs []EncodeJob, opts EncodeOptions, progress ProgressFunc) ([]EncodeResult, error) {
	rl, err := opts.Level.recoveryLevel()
	if err != nil {
		return nil, err
	}

	workers := opts.defaultedWorkers()
	jobCh := make(chan EncodeJob)
	resultCh := make(chan EncodeResult)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := ctx.Err(); err != nil {
					resultCh <- EncodeResult{Index: job.Index, OutPath: job.OutPath, Err: err}
					continue
				}
				resultCh <- renderOne(job, rl, opts.Margin)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	go func() {
		defer close(jobCh)
		for _, j := range jobs {
			jobCh <- j
		}
	}()

	results := make([]EncodeResult, len(jobs))
	byIndex := make(map[int]int, len(jobs))
	for i, j := range jobs {
		byIndex[j.Index] = i
	}

	completed := 0
	for r := range resultCh {
		completed++
		if pos, ok := byIndex[r.Index]; ok {
			results[pos] = r
		}
		if progress != nil {
			progress(completed, len(jobs))
		}
	}

	for _, r := range results {
		if r.Err != nil {
			log.Error(r.Err).Field("path", r.OutPath).Message("qr encode job failed")
			return results, fmt.Errorf("qr: one or more chunks failed to encode")
		}
	}

	return results, nil
}

// renderPixels is the fixed PNG dimension rendered for every symbol; the
// renderer always produces a square raster regardless of ChunkSize, since
// QR module count - not pixel size - is what varies with payload length.
const renderPixels = 512

func renderOne(job EncodeJob, level qrcode.RecoveryLevel, margin int) EncodeResult {
	q, err := qrcode.New(job.Text, level)
	if err != nil {
		return EncodeResult{Index: job.Index, OutPath: job.OutPath, Err: fmt.Errorf("qr: unable to encode chunk %d: %w", job.Index, err)}
	}
	// go-qrcode's quiet zone is a fixed-width border toggle rather than a
	// module-count knob; a configured margin of zero disables it entirely.
	q.DisableBorder = margin == 0

	png, err := q.PNG(renderPixels)
	if err != nil {
		return EncodeResult{Index: job.Index, OutPath: job.OutPath, Err: fmt.Errorf("qr: unable to render chunk %d: %w", job.Index, err)}
	}

	if err := atomic.WriteFile(job.OutPath, bytes.NewReader(png)); err != nil {
		return EncodeResult{Index: job.Index, OutPath: job.OutPath, Err: fmt.Errorf("qr: unable to write chunk %d: %w", job.Index, err)}
	}

	return EncodeResult{Index: job.Index, OutPath: job.OutPath}
}

// OutputName returns the zero-padded output filename for a chunk index, per
// the spec's qr-NNNNNN.png naming.
func OutputName(index int) string {
	return fmt.Sprintf("qr-%06d.png", index)
}
