// Package spawn feeds particles into a solver the way the interactive demo
// does: one particle per spawn delay from a fixed point, launched along a
// sweeping angle and tinted by a time-based rainbow.
package spawn
