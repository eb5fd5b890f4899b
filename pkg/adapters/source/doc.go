// Package source provides rule text sources: the bundled default rules, a
// remote URL fetched over HTTP and a local file watched with fsnotify.
//
// Every source implements ports.RuleSource. Sources that can detect changes
// also implement ports.Watchable; Follow turns those signals into engine reloads.
package source
