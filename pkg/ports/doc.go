/*
Package ports defines the driven ports (interfaces) for conform.

These interfaces decouple the validator from external implementations, so the
same checks run against schemas kept in memory, on disk or in Redis.

# Key Interfaces

  - SchemaStore: a named catalogue of schemas stored as plain data.
  - DocumentSource: where documents come from when they are not passed inline.

RunSchemaStoreContract is the shared test suite every SchemaStore adapter runs.
*/
package ports
