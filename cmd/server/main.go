/*
main.go - Application entry point

PURPOSE:
  Starts the budget command tree. With no arguments it behaves like
  "budget serve".

COMMANDS:
  serve             Run the HTTP API (graceful shutdown on SIGINT/SIGTERM)
  period [--at]     Show the pay period containing a date
  recompute         Recompute allocations and print a summary
  scenarios list    List demo scenarios
  scenarios load    Replace all data with a demo scenario

GLOBAL FLAGS:
  --config   Config file (default $XDG_CONFIG_HOME/budget/config.toml)
  --db       SQLite database path, ":memory:" for a throwaway store
  --log-level

ENVIRONMENT:
  BUDGET_PORT, BUDGET_DB, BUDGET_LOG_LEVEL, BUDGET_LOG_FORMAT,
  BUDGET_CURRENCY, BUDGET_ALLOWED_ORIGINS. A .env file in the working
  directory is read first.

EXAMPLES:
  # Run with file database
  ./server serve --db=./data/budget.db

  # Try a scenario without touching real data
  ./server scenarios load payment-plan --db=:memory:

SEE ALSO:
  - cli/: Command implementations
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"os"

	"github.com/warp/budget-engine/cli"
)

func main() {
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}
	cli.Execute()
}
