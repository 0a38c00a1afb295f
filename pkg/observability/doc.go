/*
Package observability turns engine lifecycle events into metrics and logs.

Both Metrics.Hooks and LoggingHooks return domain.LifecycleHooks, so they can
be merged and passed to fluxo.WithLifecycleHooks.
*/
package observability
