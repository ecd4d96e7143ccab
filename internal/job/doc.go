// Package job validates clip requests and derives the job ID that keys every
// artifact a request touches.
package job
