/*
Package ports defines the driven ports (interfaces) for the Reflex engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various state backends, rule sources and robots.

# Key Interfaces

  - Memory: The timestamped state store (in-process or Redis).
  - RuleSource / Watchable: Where rule text comes from and how changes are signaled.
  - Robot: The hardware SDK used by the built-in capabilities.
  - Controller: What the HTTP and MCP adapters drive.
  - Locker / Lease: Exclusive ownership of a shared Memory backend.
*/
package ports
