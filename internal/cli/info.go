// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saferwall/mzpeak/internal/reader"
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print row-group counts, schema columns and footer metadata keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	d, err := reader.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Printf("layout:  %s\n", d.Layout)
	fmt.Printf("version: v%d\n", d.Version)

	table := "peaks/peaks.parquet"
	if d.Version == 2 {
		table = "spectra/spectra.parquet"
	}

	if n, err := d.NumRowGroups(table); err == nil {
		fmt.Printf("row groups (%s): %d\n", table, n)
	}

	sc, err := d.TableSchema(table)
	if err != nil {
		return err
	}
	fmt.Println("columns:")
	for i := 0; i < sc.NumFields(); i++ {
		f := sc.Field(i)
		fmt.Printf("  %-24s %-10s nullable=%v\n", f.Name, f.Type, f.Nullable)
	}

	kv, err := d.FooterKV(table)
	if err != nil {
		return err
	}
	fmt.Println("footer metadata keys:")
	for k := range kv {
		fmt.Printf("  %s\n", k)
	}
	return nil
}
