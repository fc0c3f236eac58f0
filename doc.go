// Package sept wires server processes out of composable dependency modules.
//
// The repository is organised as:
//
//   - di: the assembly engine (tokens, contracts, graphs, modules, context)
//   - host: chi-based serving layer that mounts assembled clients
//   - telemetry: Prometheus collectors for assembly and HTTP traffic
//   - config: environment configuration for the daemon
//   - app: the composition root tying config, logging, assembly and host together
//   - examples/greeter: a small module tree with a diamond import
//   - cmd/septd: runnable daemon serving the greeter example
//
// Wiring stays explicit: modules name what they provide and export, contracts
// name what each capability needs, and the whole graph is resolved once at
// startup. No reflection-based injection, no lookups after assembly.
package sept
