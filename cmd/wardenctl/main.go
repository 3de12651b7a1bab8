package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dkachan/trackwarden/internal/domain"
	"github.com/dkachan/trackwarden/internal/knowledgebase"
	"github.com/dkachan/trackwarden/internal/service/database"
	"go.uber.org/zap"
)

// CLI flags
var (
	dbHost = flag.String("db-host", envOr("POSTGRES_HOST", "localhost"), "PostgreSQL host")
	dbPort = flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser = flag.String("db-user", envOr("POSTGRES_USER", "trackwarden"), "PostgreSQL user")
	dbPass = flag.String("db-pass", envOr("POSTGRES_PASSWORD", ""), "PostgreSQL password")
	dbName = flag.String("db-name", envOr("POSTGRES_DB", "trackwarden"), "PostgreSQL database")

	title   = flag.String("title", "", "Song title (for allow/block)")
	artist  = flag.String("artist", "", "Artist credit (for allow/block) or alias (for add-artist)")
	name    = flag.String("name", "", "Canonical artist name (for add-artist)")
	country = flag.String("country", "", "ISO-3166-1 alpha-2 country code (for add-artist)")
	flagged = flag.Bool("flagged", false, "Mark the artist as flagged origin (for add-artist)")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: wardenctl <command> [flags]

Commands:
  allow       record an explicit allow override for -title/-artist
  block       record an explicit block override for -title/-artist
  add-artist  insert or merge an artist record (-name, optional -artist alias, -country, -flagged)
  artists     list all known artists

`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	_ = flag.CommandLine.Parse(os.Args[2:])

	logger := zap.NewNop()

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPass,
		Database: *dbName,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer postgresSvc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := knowledgebase.NewRepository(postgresSvc, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to ensure schema: %v\n", err)
		os.Exit(1)
	}
	kb := knowledgebase.NewService(repo, logger)

	switch command {
	case "allow", "block":
		if *title == "" || *artist == "" {
			fmt.Fprintln(os.Stderr, "allow/block require -title and -artist")
			os.Exit(2)
		}
		song, err := kb.AddSongOverride(ctx, *title, *artist, command == "allow")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to record override: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Override recorded: %q / %q allowed=%v\n", song.Title, song.ArtistString, song.Allowed)

	case "add-artist":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "add-artist requires -name")
			os.Exit(2)
		}
		record := &domain.Artist{
			CanonicalName: *name,
			CountryCode:   *country,
			FlaggedOrigin: *flagged,
			Provenance:    domain.ProvenanceManual,
		}
		if *artist != "" {
			record.Aliases = []string{*artist}
		}
		saved, err := kb.UpsertArtist(ctx, record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to upsert artist: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Artist stored: %q country=%q flagged=%v aliases=%v\n",
			saved.CanonicalName, saved.CountryCode, saved.FlaggedOrigin, saved.Aliases)

	case "artists":
		artists, err := repo.ListArtists(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list artists: %v\n", err)
			os.Exit(1)
		}
		for _, a := range artists {
			marker := " "
			if a.FlaggedOrigin {
				marker = "!"
			}
			fmt.Printf("%s %-40s %-4s %s\n", marker, a.CanonicalName, a.CountryCode, a.Provenance)
		}
		fmt.Printf("%d artists\n", len(artists))

	default:
		usage()
		os.Exit(2)
	}
}
