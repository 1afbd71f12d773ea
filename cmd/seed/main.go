// Command seed populates the policy database with sample products, policies
// and orders, replacing any existing documents.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/replyforge/replyforge/internal/store/mongostore"
	"github.com/replyforge/replyforge/internal/util"
)

func main() {
	_ = godotenv.Load()

	uri := envOr("MONGODB_URI", "mongodb://localhost:27017")
	dbName := envOr("MONGODB_DATABASE", "customer_service_db")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongostore.NewClient(ctx, uri)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "mongo connect failed: %s\n", util.RedactSecrets(err.Error()))
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	summary, err := mongostore.Seed(ctx, client.Database(dbName))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "seed failed: %s\n", util.RedactSecrets(err.Error()))
		os.Exit(1)
	}

	fmt.Printf("seeded %s: %d products, %d policies, %d orders\n",
		dbName, summary.Products, summary.Policies, summary.Orders)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
