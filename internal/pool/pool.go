// Package pool provides interchangeable worker-pool implementations
// that run jobs submitted from the server's accept loop (§4.4).
package pool

// Job is a unit of work submitted to a ThreadPool.
type Job func()

// ThreadPool runs submitted jobs on a fixed number of background
// workers. Implementations must tolerate a panicking job without
// losing a worker.
type ThreadPool interface {
	Spawn(job Job)
	Close() error
}
