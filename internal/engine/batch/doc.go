// Package batch runs a worker over a list of items in fixed-size, paced batches.
//
// A Processor splits its input into batches of Config.BatchSize items. Every item
// of a batch is submitted to a FIFO concurrency Limiter at once, so at most
// Config.MaxConcurrent workers are outstanding at any time. Each worker call is
// wrapped by Retry, which retries failures with a delay that doubles whenever the
// failure is recognized as a rate-limit error. Consecutive batches are separated
// by Config.RequestInterval; no pause follows the last batch.
//
// Results are returned in input order regardless of completion order. Progress
// is reported after every completed item as a percentage that never decreases
// and is exactly 100 after the last item.
//
// Failure policy is fail-fast: the first item that still fails after its retries
// stops the run and is returned as an *ItemError. Workers that want every item
// reported should fold their own errors into the result value instead.
package batch
