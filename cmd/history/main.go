// Command history prints a project's chat log from a badger store opened
// read-only, so it can run next to a live server.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"devconnect/repositories"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	ProjectID      string `env:"PROJECT_ID,required=true"`
	Limit          int    `env:"LIMIT,default=0"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	messages, err := repositories.NewMessageRepository(db, slog.Default()).
		GetMessages(config.ProjectID, config.Limit)
	if err != nil {
		log.Fatalf("Failed to read messages: %v", err)
	}

	color.Cyan.Printf("Project %s — %d message(s)\n", config.ProjectID, len(messages))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "Sender", "Kind", "Content", "Read by"})
	for _, m := range messages {
		table.Append([]string{
			m.CreatedAt.Format(time.TimeOnly),
			m.SenderID,
			string(m.Kind),
			m.Content,
			fmt.Sprintf("%d", len(m.ReadBy)),
		})
	}
	table.Render()
}
