// Package bucket owns the lifecycle of the backend client and runs every
// backend call.
//
// # Engine
//
// An Engine is built once at process start and handed to whoever needs it.
// Start is idempotent: a lock-free check, then a mutex-guarded re-check, then
// client construction and a single BucketExists probe. Session returns a
// lightweight value over the shared client.
//
// # Executor
//
// Retry and Blocking submit a call to a bounded worker pool and wait for it.
// Every attempt gets the session timeout. Errors are classified once through
// storage.Classify:
//
//   - BACKEND_UNAVAILABLE: warn, sleep 1, 2, 4, 8, 16s (capped), retry
//   - expected codes: returned immediately, not logged
//   - anything else: logged at error level, returned immediately
//
// # Usage
//
//	exec := bucket.NewExecutor(cfg.Retry, log, collector)
//	engine := bucket.NewEngine(cfg.Storage, exec, log)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal("storage unavailable", zap.Error(err))
//	}
//	sess, _ := engine.Session()
//	info, err := bucket.Retry(ctx, sess, "stat", key, func(ctx context.Context) (minio.ObjectInfo, error) {
//	    return sess.Client.StatObject(ctx, sess.Bucket, key, minio.StatObjectOptions{})
//	})
package bucket
