// Package generation defines the boundary between the application and the
// language model that produces themed vocabulary. Implementations live in
// internal/platform (Gemini); the task package depends only on the Generator
// interface declared here.
package generation
