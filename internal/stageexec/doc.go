// Package stageexec runs one external tool invocation with a deadline,
// bounded output capture, and failure classification.
//
// Commands are always started from an argument list; no shell is involved.
// On timeout or caller cancellation the whole process group is killed so tool
// helpers (ffmpeg children, python workers) do not outlive the request. The
// executor never touches the filesystem; artifact bookkeeping belongs to the
// pipeline controller.
package stageexec
