// Package main hosts the wikimdb CLI entrypoint and command graph.
//
// Commands resolve encyclopedia subjects to ratings, annotate a page's
// article links with rating badges, and inspect the blacklist, the durable
// cache, and the configuration. Configuration, logging, and cache setup are
// resolved once per invocation in commandContext so subcommands stay thin.
package main
