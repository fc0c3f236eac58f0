// Command septd serves the greeter example module tree.
//
// Configuration comes from SEPT_* environment variables (see package config).
//
// Usage:
//
//	septd             assemble and serve until SIGINT/SIGTERM
//	septd -describe   assemble, print the module manifest as YAML, exit
//
// Assembly is fail-fast: if any provider, client or import cannot be
// resolved, septd exits non-zero without listening.
package main
