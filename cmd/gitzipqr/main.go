// SPDX-FileCopyrightText: 2023-present Datadog, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command gitzipqr converts a file or directory into a set of self-contained
// QR-code images, and reverses the process. See SPEC_FULL.md for the full
// pipeline description; argument parsing here is deliberately minimal,
// matching the spec's Non-goal of an interactive front-end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gitzipqr/gitzipqr"
	"github.com/gitzipqr/gitzipqr/internal/config"
	"github.com/gitzipqr/gitzipqr/internal/stepresult"
	"github.com/gitzipqr/gitzipqr/log"
	"github.com/gitzipqr/gitzipqr/orchestrate"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if os.Getenv("GITZIPQR_VERBOSE") != "" {
		gitzipqr.SetVerboseMode()
	}
	log.SetFactory(newLogrusFactory(gitzipqr.InVerboseMode()))

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gitzipqr <encode|decode> <input_path> [<output_dir>]")
		return 2
	}

	cmd, inputPath := args[0], args[1]
	outputDir := defaultOutputDir(cmd)
	if len(args) > 2 {
		outputDir = args[2]
	}

	password := os.Getenv("GITZIPQR_PASSWORD")
	if password == "" {
		fmt.Fprintln(os.Stderr, "GITZIPQR_PASSWORD must be set")
		return 2
	}
	passwords := [][]byte{[]byte(password)}

	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	onStep := func(r stepresult.Result) {
		fmt.Println(r.Line())
	}

	switch cmd {
	case "encode":
		_, err := orchestrate.Encode(ctx, orchestrate.EncodeOptions{
			InputPath: inputPath,
			OutputDir: outputDir,
			Passwords: passwords,
			Config:    cfg,
		}, onStep)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case "decode":
		_, err := orchestrate.Decode(ctx, orchestrate.DecodeOptions{
			InputPath: inputPath,
			OutputDir: outputDir,
			Passwords: passwords,
			Workers:   cfg.QRWorkers,
		}, onStep)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		return 2
	}

	return 0
}

func defaultOutputDir(cmd string) string {
	if cmd == "decode" {
		return "decoded"
	}

	return "qrcodes"
}
