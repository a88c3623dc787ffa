/*
Package observability turns Checker lifecycle hooks into Prometheus metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	checker, _ := conform.New(conform.WithLifecycleHooks(metrics.Hooks(logger)))
*/
package observability
