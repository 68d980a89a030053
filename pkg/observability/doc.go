/*
Package observability turns form lifecycle events into Prometheus metrics and
structured log records.

Both are plain domain.LifecycleHooks, so they compose with application hooks:

	metrics := observability.NewMetrics(registry)
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
	eng, err := arbor.New(dir, arbor.WithLifecycleHooks(hooks))
*/
package observability
