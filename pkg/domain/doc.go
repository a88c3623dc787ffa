/*
Package domain contains the result types shared by the conform walkers and
their adapters.

It is kept free of I/O: adapters (HTTP, MCP, stores) depend on it, never the
other way around.

# Key Entities

  - Finding: one validation problem with severity, dotted key path, value and message.
  - FindingsError: the error form of a rejected document.
  - RunEvent / LifecycleHooks: observability callbacks fired around each run.
  - DocumentDiff: the key-level changes normalization made to a document.
*/
package domain
