// Package retry re-runs an operation that failed before it produced a result.
//
// [Do] is used around single HTTP exchanges with ABS: a dropped connection is
// retried with exponential backoff, while errors marked [Permanent] (any
// response the server actually sent) end the loop at once.
package retry
