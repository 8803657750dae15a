package config

import (
	"github.com/sahilm/fuzzy"
)

var knownKeys = []string{
	"width",
	"height",
	"restore_window_state",
	"hide_menu_bar",
	"hide_title_bar",
	"path",
	"ignore_path_pattern",
	"file_ext",
	"file_ext.markdown",
	"file_ext.html",
	"markdown",
	"markdown.font_family",
	"markdown.font_size",
}

func isKnownKey(key string) bool {
	for _, k := range knownKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Suggest returns the known key that best matches an unknown one, or "".
// Both abbreviations ("restore") and known keys buried in a longer name
// ("hide_menu_bar_always") are matched.
func Suggest(key string) string {
	if matches := fuzzy.Find(key, knownKeys); len(matches) > 0 {
		return matches[0].Str
	}

	best, found := "", false
	bestScore := 0
	for _, known := range knownKeys {
		for _, m := range fuzzy.Find(known, []string{key}) {
			if !found || m.Score > bestScore {
				best, bestScore, found = known, m.Score, true
			}
		}
	}
	return best
}
