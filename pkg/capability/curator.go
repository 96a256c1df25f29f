// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package capability

import "strings"

// FallbackModel is the default when the catalog is empty or yields no
// curated entries.
const FallbackModel = "moonshotai/Kimi-K2-Instruct"

// preferredDefaults is scanned in order by SelectDefault; the first
// curated entry containing one of these substrings wins.
var preferredDefaults = []string{
	"moonshotai/Kimi-K2-Instruct",
	"deepseek-ai/DeepSeek-V3.1",
}

// vendorBuckets is the fixed vendor priority. An identifier lands in
// the first bucket whose substring it contains; identifiers matching no
// bucket are dropped.
var vendorBuckets = []string{"deepseek", "kimi", "qwen", "minimax"}

// Curate filters and orders a raw model catalog.
//
// Premium tiers (pro/plus) and legacy qwen 2.x identifiers are dropped,
// the remainder is grouped by vendor priority (deepseek, kimi, qwen,
// minimax), and the server's order is preserved within each group. The
// function is pure and deterministic: curating an already-curated list
// yields the same sequence.
func Curate(catalog []string) []string {
	buckets := make([][]string, len(vendorBuckets))

	for _, model := range catalog {
		lower := strings.ToLower(model)

		// Premium paid tiers are excluded outright.
		if strings.Contains(lower, "pro") || strings.Contains(lower, "plus") {
			continue
		}

		// Legacy qwen generations; qwen3 and later stay.
		if strings.Contains(lower, "qwen") &&
			(strings.Contains(lower, "2.5") || strings.Contains(lower, "qwen2")) {
			continue
		}

		for i, vendor := range vendorBuckets {
			if strings.Contains(lower, vendor) {
				buckets[i] = append(buckets[i], model)
				break
			}
		}
	}

	curated := make([]string, 0, len(catalog))
	for _, b := range buckets {
		curated = append(curated, b...)
	}
	return curated
}

// SelectDefault picks the default model from a curated list: the first
// entry matching a preferred substring, else the first entry, else the
// hardcoded fallback when the list is empty.
func SelectDefault(curated []string) string {
	for _, pref := range preferredDefaults {
		for _, model := range curated {
			if strings.Contains(model, pref) {
				return model
			}
		}
	}
	if len(curated) > 0 {
		return curated[0]
	}
	return FallbackModel
}

// Recommended returns the preferred defaults present in the curated
// list, for display alongside the model picker.
func Recommended(curated []string) []string {
	var out []string
	for _, pref := range preferredDefaults {
		for _, model := range curated {
			if strings.Contains(model, pref) {
				out = append(out, pref)
				break
			}
		}
	}
	return out
}
