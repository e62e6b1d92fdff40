package port

import "context"

// LiteralTranslator produces a word-for-word translation.
type LiteralTranslator interface {
	Translate(ctx context.Context, text, srcLang, dstLang string) (string, error)
}

// Transcriber turns recorded speech into text. The boolean is false when
// nothing could be transcribed.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, bool)
}
