// Package websocket pushes Grid Cleaner state updates to browser clients.
//
// A central Hub owns every connection. Clients join one session with the
// ?session= query parameter and receive a JSON Message after each
// state-changing call on that session:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}, "board": "..."}
//
// The board field is the same bordered text the console prints. Incoming
// client messages are read and discarded to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	server := api.NewServer(gameService, hub)
//
// Concurrency:
//
// Only the Run goroutine changes client sets. Each connection has a read pump
// and a write pump goroutine.
package websocket
