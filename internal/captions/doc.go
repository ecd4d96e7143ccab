// Package captions models transcripts and turns them into ffmpeg drawtext
// filter graphs that overlay each segment's text for its time range.
package captions
