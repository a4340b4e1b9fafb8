// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/saferwall/mzpeak/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
