// Package scenario runs YAML scripts of spawns, pointer input and frames
// against a fresh solver and reports the solver state after each step.
package scenario
