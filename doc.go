// Package bffgate is a backend-for-frontend gateway generated from mappings.
//
// # Overview
//
// A project describes the public endpoints a frontend calls, the upstream
// APIs that hold the data and the mappings between them. From the mappings
// bffgate derives which upstream endpoint depends on which, groups them into
// phases and serves every public endpoint by running the phases in order.
// Endpoints within one phase run in parallel.
//
//	┌─────────────────┐
//	│   Frontend      │
//	└────────┬────────┘
//	         │ GET /books/42
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Gateway        │◄──────┤  Project file   │
//	│  (Echo)         │       │  (YAML / JSON)  │
//	└────────┬────────┘       └─────────────────┘
//	         │ phase 0, phase 1, ...
//	┌────────▼────────┐
//	│  Upstream APIs  │
//	└─────────────────┘
//
// # Components
//
//   - models: project entities, plans and execution reports
//   - internal/store: versioned in-memory project with change notifications
//   - internal/mapping: mapping lookups by target and by source
//   - internal/graph, internal/scheduler: dependency graph and phase plan
//   - internal/engine: aggregation runs and token issuance
//   - internal/api: public routes, login and the admin API
//
// # Usage
//
// Create a sample project and start the gateway:
//
//	bffgate project init project.yaml
//	bffgate serve --project project.yaml
//
// Inspect the phase plan:
//
//	bffgate plan --project project.yaml
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (config.yaml)
//   - Environment variables (BFF_ prefix)
//   - .env file
//
// Example configuration:
//
//	server:
//	  port: 8080
//	project:
//	  file: project.yaml
//	  watch: true
//	gateway:
//	  execution_timeout: 30s
//	  max_parallel: 8
//	security:
//	  jwt_secret: change-me
//
// # Admin API
//
//   - GET    /api/v1/project             - Current project and version
//   - PUT    /api/v1/project             - Replace the project
//   - GET    /api/v1/plan                - Phase plan and dependency edges
//   - POST   /api/v1/validate            - Validate a project
//   - POST   /api/v1/execute/:id         - Run one aggregation with its report
//   - GET    /api/v1/ws/events           - Change and execution events
package bffgate
