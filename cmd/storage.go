package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"songvault/config"
	"songvault/storage"

	"github.com/spf13/cobra"
)

var (
	storagePrefix string
	storageStats  bool
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the cover image bucket",
	Long:  `List the cover objects stored in the configured bucket, optionally filtered by prefix, or print aggregate bucket statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Bucket: %s @ %s\n", cfg.MinioBucket, cfg.MinioEndpoint)

		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		objects, stats, err := store.ListObjects(ctx, storagePrefix)
		if err != nil {
			log.Fatalf("Failed to list objects: %v", err)
		}

		if storageStats {
			fmt.Printf("Objects:       %d\n", stats.TotalObjects)
			fmt.Printf("Total size:    %s\n", storage.FormatSize(stats.TotalSize))
			if !stats.LastModified.IsZero() {
				fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
			}
			return
		}

		if len(objects) == 0 {
			fmt.Println("No objects found.")
			return
		}
		for _, obj := range objects {
			fmt.Printf("%-50s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)

	storageCmd.Flags().StringVarP(&storagePrefix, "prefix", "p", "", "filter objects by key prefix")
	storageCmd.Flags().BoolVarP(&storageStats, "stats", "s", false, "print aggregate bucket statistics")
}
