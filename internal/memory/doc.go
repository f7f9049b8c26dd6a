// Package memory keeps image decoding inside the container memory limit.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO.
// A [Guard] samples heap usage against that limit and suspends the job
// scheduler above the critical watermark, resuming it once usage falls
// below the high watermark. The gap between the two watermarks keeps the
// scheduler from flapping.
package memory
