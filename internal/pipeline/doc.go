// Package pipeline runs clip recipes: ordered stages that fetch, transcode,
// transcribe, and compose media for one job.
//
// A Controller interprets Recipe data with a single loop. Each stage either
// shells out through the stage executor or runs in-process, its output is
// tracked in the workspace, and the first failure stops the recipe. Every
// artifact the job created is removed on failure, and on success once the
// caller releases the Outcome after delivery. Fetched media is the exception:
// a successful fetch is kept as a cache keyed by job ID.
package pipeline
