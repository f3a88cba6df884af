// Package command reads the Grid Cleaner text command streams.
//
// Setup commands are "w r c" (wall), "d r c" (dirt), "h r c" (charger),
// "L r1 c1 r2 c2" (line) and "q" (finish setup). Play commands are the single
// keys w, a, s, d (move), b (battery), c (move count) and r (recharge).
// Letters are read one rune at a time, so play keys may be packed together.
package command
