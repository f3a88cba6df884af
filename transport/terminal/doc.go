// Package terminal is a full-screen Grid Cleaner frontend built on tcell.
//
// The UI talks to a service.GameService session, so the same board can be watched
// over the websocket feed while it is played in the terminal.
//
// In setup the arrow keys move a cursor and x, * and + place walls, dirt and chargers.
// Enter starts the robot under the cursor. In play w, a, s and d move, b reports the
// battery, c the move count and r recharges. q or Esc quits.
package terminal
