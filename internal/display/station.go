// Package display holds pure formatting and state-to-style functions.
// Nothing here touches IO or controller state.
package display

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const StationPrefix = "passthrough-station-"

// Code converts station name into 2 glyph display code:
// first and last characters upper-cased, "passthrough-station-1" -> "P1".
// Names shorter than 2 characters are upper-cased whole.
func Code(name string) string {
	if utf8.RuneCountInString(name) < 2 {
		return strings.ToUpper(name)
	}
	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	return strings.ToUpper(string(first) + string(last))
}

// Number is integer after the last '-' in station name, default 1.
func Number(name string) int {
	s := name
	if i := strings.LastIndexByte(name, '-'); i >= 0 {
		s = name[i+1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func StationName(n int) string {
	if n <= 0 {
		n = 1
	}
	return StationPrefix + strconv.Itoa(n)
}

func TaskLabel(taskID string) string { return "Task ID: " + taskID }
