package render

import (
	"strings"
)

// WrapWords re-breaks comment lines at word boundaries so no output line
// exceeds width. Words longer than the width stand alone on their own line
// rather than being split mid-word. Empty lines are dropped.
func WrapWords(lines []string, width int) []string {
	var out []string
	for _, line := range lines {
		for _, sub := range strings.Split(line, "\n") {
			out = append(out, wrapLine(sub, width)...)
		}
	}
	return out
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	var out []string
	cur := words[0]
	for _, w := range words[1:] {
		if len(cur)+1+len(w) <= width {
			cur += " " + w
			continue
		}
		out = append(out, cur)
		cur = w
	}
	return append(out, cur)
}
