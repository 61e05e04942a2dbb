// Package gemini implements oracle.Client on top of Google's Gemini API.
//
// This package is an infrastructure adapter: it owns the genai client, sends
// one prompt per call and returns the first candidate's text. Transient
// failures are retried with exponential backoff and jitter; blocked or empty
// responses are reported immediately. Parsing the text is the caller's job.
package gemini
