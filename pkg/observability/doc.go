/*
Package observability turns interaction loop events into metrics and logs.

Both Metrics.Hooks and LogHooks return domain.LifecycleHooks, so they can be
merged and passed to reflex.WithLifecycleHooks.
*/
package observability
