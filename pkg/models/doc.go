// Package models defines the core data structures used throughout cinesift.
//
// It includes:
//   - MediaItem: the normalized movie-or-show record used for display
//   - Resolution: the ordered, deduplicated result of a description search
//   - MovieDetails / TVDetails: full records for the detail pages
//   - Credits, Video, Genre: related collections of a title
//   - ChatMessage, QuizQuestion: payloads of the assistant features
//
// All models carry JSON tags for API responses.
package models
