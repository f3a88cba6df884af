// Package api provides the HTTP REST API for Grid Cleaner sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session from a scenario ({"scenario_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Setup:
//   - POST /api/sessions/{id}/setup - Run setup commands ({"script": "w 1 1\nq"})
//   - POST /api/sessions/{id}/start - Place the robot ({"row": 5, "col": 5})
//
// Play:
//   - POST /api/sessions/{id}/move - One move ({"direction": "up"})
//   - POST /api/sessions/{id}/bulk-move - Up to 50 moves, stops on the first failure
//   - POST /api/sessions/{id}/play - Packed key stream ({"keys": "ddwbc"})
//   - POST /api/sessions/{id}/recharge - Recharge on a charger tile
//   - POST /api/sessions/{id}/reset - Rebuild the session from its scenario
//
// State:
//   - GET /api/sessions/{id}/state - JSON game state
//   - GET /api/sessions/{id}/render - The framed text board (text/plain)
//   - GET /api/sessions/{id}/history - Paginated move history (?page=1&limit=20&order=desc)
//
// Scenarios:
//   - GET /api/scenarios - List scenarios
//   - POST /api/scenarios - Save a scenario
//   - GET /api/scenarios/{name} - Load a scenario
//
// Other:
//   - GET /health - Liveness probe
//   - GET /ws?session={id} - WebSocket feed of state updates
//
// Errors are returned as {"error": "..."}. Unknown sessions and scenarios map to
// 404, lifecycle violations (setup after start, moves after game over) to 409,
// malformed input to 400 and scenarios failing validation to 422.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
