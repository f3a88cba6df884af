// Package mcp exposes Grid Cleaner to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the REST
// API in package api, and the JSON response is formatted as text for the agent.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - setup: setup commands such as "L 2 2 2 7" or "q"
//   - start: place the robot
//   - move, bulk_move, play: drive the robot
//   - recharge, reset_game
//   - game_state, render_board, describe_cell, move_history
//   - list_scenarios, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()), used by "gridcleaner mcp"
//   - HTTP: POST /mcp on "gridcleaner serve"
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
