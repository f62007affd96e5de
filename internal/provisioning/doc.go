// Package provisioning runs the two operations of abspool end to end.
//
// [Provisioner] builds an ABS request, waits for the job to be filled,
// translates the returned hosts into inventory targets and saves the
// inventory. [Resolver] finds every target sharing the job of a named host,
// releases the job and prunes those targets.
//
// Progress is reported through an [Observer].
package provisioning
