// Package viz draws the solver in the terminal with Bubble Tea.
//
//   - [Model]: live view of one solver with a stats panel
//   - [Canvas]: braille dot canvas with per-cell color
//   - [RunInteractive]: preset picker and parameter editor in front of the live view
//
// # Input
//
//	Left mouse  - Pull particles toward the pointer
//	Right mouse - Push particles away
//	Space       - Pause/Resume simulation
//	.           - Step one frame while paused
//	R           - Rebuild the solver from its preset
//	S           - Toggle spawning
//	T           - Cycle color themes
//	G           - Toggle GIF recording
//	?           - Show help overlay
//	Q, Esc      - Quit
//
// Recordings are written to verletsim.gif in the current directory.
package viz
