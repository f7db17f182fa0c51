// Package snapshot defines the portable state of a fingerprint engine and
// the stores that persist it.
//
// A State captures exactly what the engine's export contract promises: the
// symbol registry mapping with arbitrary-precision bits rendered as decimal
// strings, and the per-signature collision counters. States are encoded on
// the wire as zstd-compressed YAML.
//
// Three Store backends are provided:
//
//   - FileStore writes snapshots to a directory on the local filesystem.
//   - RedisStore keeps snapshots under a key prefix in Redis.
//   - EtcdStore keeps snapshots under a namespace in an etcd cluster,
//     with optional TLS.
//
// All stores validate a State before writing it and after reading it, so a
// corrupt snapshot surfaces at the store boundary rather than inside the
// engine.
package snapshot
