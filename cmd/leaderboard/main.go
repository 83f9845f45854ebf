// Command leaderboard prints the current top photos, e.g. for the announcement at the end of the event.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"photovote/config"
	"photovote/db"
	"photovote/report"
	"photovote/voting"
)

func main() {
	n := flag.Int("n", 3, "number of photos to show")
	flag.Parse()

	conn, err := db.Open(config.MYSQL_DSN, config.SQLITE_FILE)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	top, err := voting.NewView(conn).Top(context.Background(), *n)
	if err != nil {
		log.Fatalf("Cannot load votes: %v", err)
	}
	report.PrintLeaderboard(os.Stdout, top)
}
