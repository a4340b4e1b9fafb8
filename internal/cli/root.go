// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package cli implements mzPeak's command-line surface (§6): convert,
// demo, info and validate, wired the way the teacher's pedumper wires its
// dump/version subcommands onto a cobra root command, with zerolog in
// place of the teacher's log.Println for structured output.
package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbosity int

// rootCmd is mzpeak's top-level command.
var rootCmd = &cobra.Command{
	Use:   "mzpeak",
	Short: "Columnar storage engine for mass-spectrometry spectra",
	Long:  "mzpeak converts, inspects and validates mzPeak columnar datasets.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(verbosity)
	},
}

func configureLogging(v int) {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.WarnLevel
	switch {
	case v >= 2:
		level = zerolog.TraceLevel
	case v == 1:
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv)")
	rootCmd.AddCommand(convertCmd, demoCmd, infoCmd, validateCmd)
}

// Execute runs the root command and returns the process exit code (§6,
// "Exit codes: 0 success, 1 validation failure, any non-zero on conversion
// error").
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode lets a subcommand's RunE signal a specific exit status (the
// validator's 0/1 contract) without cobra's default behaviour of always
// returning 1 on a non-nil error.
var exitCode int
