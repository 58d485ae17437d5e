// Package sim runs a solver frame by frame outside any user interface:
// spawning, pointer input, metrics and sampling for headless runs, scripted
// scenarios and the interactive front ends.
package sim
