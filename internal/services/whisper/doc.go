// Package whisper wraps the openai-whisper command line tool.
//
// Transcription runs as a subprocess through the stage executor so it shares
// the same timeout, cancellation, and output capture as every other stage.
// The JSON transcript whisper writes next to the audio is moved to the
// requested path and parsed into a captions.Transcript.
package whisper
