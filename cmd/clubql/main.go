// Command clubql runs a GraphQL server for football clubs and their players.
//
// Settings come from an optional YAML config file, a .env file and environment variables
// (see internal/config). Use -schema to print the GraphQL schema instead of running the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrewwphillips/clubql"
	"github.com/andrewwphillips/clubql/internal/config"
	"github.com/andrewwphillips/clubql/internal/server"
)

func main() {
	var (
		configFile  = flag.String("config", "", "YAML config file")
		envFile     = flag.String("env", ".env", "file of environment variable settings (ignored if not found)")
		printSchema = flag.Bool("schema", false, "print the GraphQL schema and exit")
	)
	flag.Parse()

	if *printSchema {
		g := clubql.New(nil)
		sdl, err := g.GetSchema()
		if err != nil {
			log.Fatalln("clubql: schema error:", err)
		}
		fmt.Print(sdl)
		return
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		log.Fatalln("clubql:", err)
	}

	s := clubql.NewStore()
	if cfg.Seed != "" {
		f, err := os.Open(cfg.Seed)
		if err != nil {
			log.Fatalln("clubql: opening seed file:", err)
		}
		s, err = clubql.LoadStore(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("clubql: loading %q: %v", cfg.Seed, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.New(cfg, s).Run(ctx); err != nil {
		log.Fatalln("clubql: server failed:", err)
	}
}
