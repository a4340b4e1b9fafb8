// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package validate

import (
	"context"
	"testing"
)

func TestReportFailed(t *testing.T) {
	cases := []struct {
		name   string
		report Report
		want   bool
	}{
		{"empty", Report{}, false},
		{"all ok", Report{Checks: []Check{{Status: StatusOK}, {Status: StatusOK}}}, false},
		{"warning only", Report{Checks: []Check{{Status: StatusOK}, {Status: StatusWarning}}}, false},
		{"one failure", Report{Checks: []Check{{Status: StatusOK}, {Status: StatusFailure}}}, true},
	}
	for _, c := range cases {
		if got := c.report.Failed(); got != c.want {
			t.Errorf("%s: Failed() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRunMissingPath(t *testing.T) {
	if _, err := Run(context.Background(), "/nonexistent/path/does-not-exist.mzpeak"); err == nil {
		t.Fatal("Run on a nonexistent path should return an error, not a Report")
	}
}

func TestTableCheckName(t *testing.T) {
	cases := map[string]string{
		"peaks/peaks.parquet":     "peaks.parquet",
		"spectra/spectra.parquet": "spectra.parquet",
	}
	for entry, want := range cases {
		if got := tableCheckName(entry); got != want {
			t.Errorf("tableCheckName(%q) = %q, want %q", entry, got, want)
		}
	}
}
