// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

package qr

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"runtime"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/gitzipqr/gitzipqr/chunk"
	"github.com/gitzipqr/gitzipqr/log"
)

// DecodeJob is one unit of work for the decoder pool: load and scan the
// image at Path.
type DecodeJob struct {
	Path string
}

// DecodeResult reports the outcome of one DecodeJob. A malformed or
// non-matching-type payload is not an error: OK is false and Payload is the
// zero value, per the spec's "dropped, not fatal" contract.
type DecodeResult struct {
	Path    string
	OK      bool
	Payload chunk.Payload
}

// DecodeOptions configures the decoder pool.
type DecodeOptions struct {
	Workers int
}

func (o DecodeOptions) defaultedWorkers() int {
	if o.Workers > 0 {
		return o.Workers
	}

	w := runtime.NumCPU()
	if w < 1 {
		w = 1
	}

	return w
}

// DecodeAll scans every image path using a fixed-size worker pool. It never
// returns an error for an individual unreadable or unparsable image; those
// surface as a DecodeResult with OK=false so the Assembler can report
// missing chunks without the whole decode run aborting early.
//
// ctx is checked between jobs, not pre-empted mid-scan: a worker already
// decoding an image finishes it, but will not pick up another job once ctx
// is done. A cancelled job surfaces as DecodeResult{OK: false}, the same
// shape as any other dropped image.
func DecodeAll(ctx context.Context, jobs []DecodeJob, opts DecodeOptions, progress ProgressFunc) []DecodeResult {
	workers := opts.defaultedWorkers()
	jobCh := make(chan DecodeJob)
	resultCh := make(chan DecodeResult)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if ctx.Err() != nil {
					resultCh <- DecodeResult{Path: job.Path}
					continue
				}
				resultCh <- decodeOne(job)
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

	results := make([]DecodeResult, 0, len(jobs))
	completed := 0
	for r := range resultCh {
		completed++
		results = append(results, r)
		if progress != nil {
			progress(completed, len(jobs))
		}
	}

	return results
}

func decodeOne(job DecodeJob) DecodeResult {
	f, err := os.Open(job.Path)
	if err != nil {
		log.Error(err).Field("path", job.Path).Message("unable to open qr image")
		return DecodeResult{Path: job.Path}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		log.Error(err).Field("path", job.Path).Message("unable to decode image")
		return DecodeResult{Path: job.Path}
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		log.Error(err).Field("path", job.Path).Message("unable to build binary bitmap")
		return DecodeResult{Path: job.Path}
	}

	reader := qrcode.NewQRCodeReader()
	res, err := reader.Decode(bmp, nil)
	if err != nil {
		// Not every image in a directory is necessarily a chunk symbol;
		// this is an expected, non-fatal outcome, not logged as an error.
		return DecodeResult{Path: job.Path}
	}

	p, err := chunk.Decode([]byte(res.GetText()))
	if err != nil {
		return DecodeResult{Path: job.Path}
	}
	if p.Type != chunk.PayloadType || p.Version != chunk.PayloadVersion {
		return DecodeResult{Path: job.Path}
	}

	return DecodeResult{Path: job.Path, OK: true, Payload: p}
}
