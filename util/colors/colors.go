// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/anchorproof/blob/master/LICENSE.md

package colors

import (
	"fmt"
	"regexp"
)

var Red = "\033[31;1m"
var Grey = "\033[90m"
var Mint = "\033[38;5;48;1m"

var Clear = "\033[0;0m"

// Sprint wraps args in color unless color output is disabled.
func Sprint(color string, enabled bool, args ...interface{}) string {
	if !enabled {
		return fmt.Sprint(args...)
	}
	return color + fmt.Sprint(args...) + Clear
}

var uncolor = regexp.MustCompile("\x1b\\[([0-9]+;)*[0-9]+m")

func Uncolor(text string) string {
	return uncolor.ReplaceAllString(text, "")
}
