// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferwall/mzpeak/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Run the three-step validator over a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := validate.Run(ctx, args[0])
	if err != nil {
		exitCode = 1
		return err
	}

	for _, c := range report.Checks {
		line := fmt.Sprintf("[%s] %s", c.Status, c.Name)
		if c.Detail != "" {
			line += ": " + c.Detail
		}
		fmt.Println(line)
	}

	if report.Failed() {
		exitCode = 1
		return nil
	}
	exitCode = 0
	return nil
}
