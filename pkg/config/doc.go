// Package config provides configuration management for cinesift.
//
// Configuration is loaded from environment variables with sensible defaults,
// optionally seeded from a dotenv file. The package covers:
//   - TMDB metadata API credentials, base URLs and request rate
//   - Completion (LLM) provider, model and credentials
//   - HTTP server settings and the optional API key guarding it
//   - Fan-out width, retry budget and request timeout
//   - Logging level, format and rotating file output
//
// Credentials are optional at load time; a client built without its key
// refuses to issue requests and reports a "not configured" error.
package config
