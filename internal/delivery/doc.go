// Package delivery streams a finished artifact to an HTTP client and releases
// the job's workspace afterwards.
package delivery
