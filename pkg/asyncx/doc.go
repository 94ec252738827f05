// Package asyncx provides the small set of concurrency primitives the relay
// needs.
//
// # Futures
//
// A [Future] represents a value that will be computed asynchronously.
// Use [Run] to start work immediately in a goroutine and [Future.Await] to
// block until the result is ready. Await may be called from many goroutines;
// they all observe the same result. A panic inside the function resolves
// the Future with an error.
//
//	fut := asyncx.Run(func() (string, error) {
//	    return client.Send(ctx, req)
//	})
//
//	text, err := fut.Await()
//
// # Fan-out
//
// [AllSettled] runs a set of functions concurrently and returns one [Result]
// per function, in input order, so callers can inspect every outcome.
//
//	results := asyncx.AllSettled(ctx,
//	    func(ctx context.Context) (struct{}, error) { return struct{}{}, rdb.Ping(ctx).Err() },
//	    func(ctx context.Context) (struct{}, error) { return struct{}{}, db.PingContext(ctx) },
//	)
package asyncx
