package repositories

import "context"

// Transcriber abstracts the speech recognition capability. It is
// stateless per call: one audio segment in, its text out. An empty
// string is a valid result (no speech detected).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
