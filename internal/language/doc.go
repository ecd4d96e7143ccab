// Package language normalizes the transcription language setting and names
// detected transcript languages for the job log.
package language
