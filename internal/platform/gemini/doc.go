// Package gemini implements the generation.Provider capability against
// Google's Gemini API using the google.golang.org/genai client.
package gemini
