// Package services provides the core business logic for cinesift.
//
// It includes services for:
//   - Catalog browsing: trending, curated listings, search and title details
//   - Insights: summaries, theme analysis, quizzes, chat and recommendations
//     generated by the completion model
//   - Coordination: description searches in last-query-wins sessions and
//     the upstream self-test
//
// All services take a context and propagate cancellation to upstream calls.
package services
