// Package handlers provides the HTTP API of cinesift.
//
// The API includes endpoints for:
//   - Health checks, the upstream self-test and Prometheus metrics
//   - Natural-language discovery with last-query-wins sessions
//   - Search, trending and curated movie and TV listings
//   - Title details, similar titles and AI recommendations
//   - Per-title summaries, theme analysis, quizzes and chat
//
// Responses use the {"message","data"} envelope on success and the
// {"error","message"} envelope on failure.
package handlers
