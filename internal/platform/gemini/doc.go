// Package gemini provides an implementation of the generation.Generator interface
// that uses Google's Gemini API to produce themed vocabulary items.
//
// This package is an infrastructure adapter: it renders a prompt template,
// calls the model through the google.golang.org/genai client, retries transient
// failures with exponential backoff and converts the JSON reply into
// domain.VocabularyItem values. Nothing outside this package sees genai types.
package gemini
