// Command admin runs maintenance tasks against the yatube database and cache.
//
//	admin create-group -title "Cats" -slug cats [-description "..."]
//	admin flush-cache [-key index_page]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/logger"
	"yatube/internal/model"
	"yatube/internal/repository"
	"yatube/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "create-group":
		err = createGroup(ctx, cfg, log, os.Args[2:])
	case "flush-cache":
		err = flushCache(ctx, cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
			}
			os.Exit(1)
		}
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <create-group|flush-cache> [flags]")
}

func createGroup(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ContinueOnError)
	var in model.GroupInput
	fs.StringVar(&in.Title, "title", "", "group title")
	fs.StringVar(&in.Slug, "slug", "", "group slug (latin letters, digits, hyphens, underscores)")
	fs.StringVar(&in.Description, "description", "", "group description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	groups := service.NewGroupService(repository.NewGroupRepository(db), log)
	group, err := groups.Create(ctx, in)
	if err != nil {
		return err
	}

	fmt.Printf("created group %d (%s)\n", group.ID, group.Slug)
	return nil
}

func flushCache(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("flush-cache", flag.ContinueOnError)
	key := fs.String("key", model.IndexPageCacheKey, "cache key to drop")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := cache.NewPageCache(client, log).Invalidate(ctx, *key); err != nil {
		return err
	}

	fmt.Printf("flushed %s\n", *key)
	return nil
}
