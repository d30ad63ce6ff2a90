// Package scroll implements the wheel smoothing engine: a classifier that
// separates discrete wheel ticks from trackpad and momentum input, a per-axis
// accumulator, and a fixed-rate scheduler that drains the accumulator into
// continuous pixel deltas with sub-pixel rounding carry.
//
// Platform interception lives in package scrolltap; the engine only sees
// Input values delivered through Handler and writes Delta values to an Emitter.
package scroll
