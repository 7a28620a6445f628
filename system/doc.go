/*
Package system manages the startup, running, metrics and shutdown of a one-shot program.

Resources such as the Redis client register their cleanup, health check and metrics with a
System as they are loaded. The program then checks everything is ready, runs its task next
to a signal handler, publishes the gauges once and releases every resource in reverse order:

	sys := system.New()
	defer sys.Cleanup(ctx)

	client := redis.Load(opts, sys)
	if err := sys.Ready(ctx); err != nil {
		return err
	}
	return sys.Run(ctx, task)
*/
package system
