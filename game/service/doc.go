// Package service provides the business logic layer for Grid Cleaner.
//
// The service package implements:
//   - Multi-session game management
//   - Scenario loading and saving
//   - Setup scripts, moves, key sequences and bulk moves
//   - Move history pagination
//   - Per-session transcripts
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, lifecycle and transcripts.
// ScenarioManager loads and stores prepared boards.
//
// Architecture:
//
// The service layer sits between the transports (console, terminal, HTTP,
// WebSocket and MCP) and the game engine. Each session owns its own engine and
// commands against one session are serialized by the session lock.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	scenarioMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, scenarioMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "right")
//	fmt.Println(result.Board)
package service
