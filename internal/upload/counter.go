// Package upload publishes extracted clips to short-form platforms. It is a
// collaborator of the detection engine, never the other way around: it only
// ever sees finished clip files.
package upload

import (
	"os"
	"strconv"
	"strings"
)

// NextClipNum reads the persistent clip counter, falling back to start when
// the file is missing or unreadable. The counter keeps titles numbered
// consistently across sessions and platforms.
func NextClipNum(path string, start int) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return start
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return start
	}
	return n
}

// SaveClipNum persists the next counter value.
func SaveClipNum(path string, value int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(value)), 0644)
}

// FormatTitle expands {num}, {n} and {total} placeholders in a title
// template.
func FormatTitle(template string, num, n, total int) string {
	r := strings.NewReplacer(
		"{num}", strconv.Itoa(num),
		"{n}", strconv.Itoa(n),
		"{total}", strconv.Itoa(total),
	)
	return r.Replace(template)
}

// truncate cuts s to at most max bytes, for platform title/description caps.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// clipNums assigns persistent numbers to a batch of clips.
func clipNums(counterPath string, start, count int) []int {
	first := NextClipNum(counterPath, start)
	nums := make([]int, count)
	for i := range nums {
		nums[i] = first + i
	}
	return nums
}
