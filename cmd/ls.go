package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"beatdrop/config"
	"beatdrop/logger"
	"beatdrop/model"
	"beatdrop/storage"
)

var (
	lsArtist string
	lsDelete bool
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Inspect the merged artist/track view",
	Long:  "Lists artists and tracks across the local tree and the MinIO bucket, the same merged view the API serves. Can also delete one artist's namespace.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.Init(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		local, err := storage.NewLocal(cfg.MediaRoot)
		if err != nil {
			log.Fatalf("initializing media root: %v", err)
		}
		var remote *storage.Remote
		if cfg.RemoteConfigured() {
			if remote, err = storage.NewRemote(cfg); err != nil {
				log.Printf("remote storage unavailable: %v", err)
				remote = nil
			}
		}
		store := storage.NewStore(local, remote)
		ctx := context.Background()

		if lsDelete {
			if lsArtist == "" {
				log.Fatal("delete requires --artist")
			}
			deleted, err := store.DeleteArtist(ctx, lsArtist)
			if err != nil {
				log.Fatalf("deleting %s: %v", lsArtist, err)
			}
			if !deleted {
				log.Fatalf("no namespace matched %s", lsArtist)
			}
			fmt.Printf("deleted %s\n", lsArtist)
			return
		}

		if lsArtist != "" {
			tracks, found := store.ListTracks(ctx, lsArtist)
			if !found {
				log.Fatalf("no namespace matched %s", lsArtist)
			}
			fmt.Printf("%s (%s): %d track(s)\n", model.ArtistDisplayName(lsArtist), lsArtist, len(tracks))
			for _, t := range tracks {
				origin := "local"
				if t.Remote {
					origin = "remote"
				}
				fmt.Printf("  %-40s %10d bytes  %s\n", t.Filename, t.Size, origin)
			}
			return
		}

		slugs := store.ListArtists(ctx)
		fmt.Printf("%d artist(s)\n", len(slugs))
		for _, s := range slugs {
			fmt.Printf("  %-30s %s\n", s, model.ArtistDisplayName(s))
		}
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().StringVarP(&lsArtist, "artist", "a", "", "limit to one artist slug")
	lsCmd.Flags().BoolVarP(&lsDelete, "delete", "d", false, "delete the artist's namespace from both backends")
}
