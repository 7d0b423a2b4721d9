// Package cache stores rendered diagram artifacts.
//
// # Backends
//
// Three [Cache] implementations are provided:
//
//   - [FileCache]: one JSON file per entry under the user cache directory
//     (see [DefaultDir]). Used by the CLI.
//   - [RedisCache]: a shared Redis instance, for running several API servers
//     behind a load balancer. Connection failures are retried with
//     exponential backoff.
//   - [NullCache]: stores nothing. Used when caching is disabled.
//
// # Keys
//
// A [Keyer] derives keys from content hashes only: the hash of the
// normalized descriptor, the hash of the node catalog and the render
// options. Descriptors and built graphs are never cached themselves;
// rebuilding a graph is cheap, rendering it through Graphviz is not.
//
//	key := cache.NewDefaultKeyer().ArtifactKey(descHash, cat.Hash(),
//	    cache.ArtifactKeyOpts{Format: "svg"})
//
// [ScopedKeyer] prefixes keys so several deployments can share one Redis.
package cache
