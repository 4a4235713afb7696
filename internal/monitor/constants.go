// Package monitor repeatedly captures a screen region and compares it to a
// reference image until the similarity reaches a threshold.
package monitor

import "time"

// Monitor defaults
const (
	// Similarity that ends a session successfully
	DefaultThreshold = 0.90

	// Time between two captures
	DefaultInterval = 500 * time.Millisecond
)
