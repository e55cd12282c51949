package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/smartzip/pkg/smartzip/cache"
	"github.com/jamesainslie/smartzip/pkg/smartzip/types"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the ratio cache",
	Long: `Commands for managing the trial compression ratio cache.

With --cache, the ratio measured for each large file is remembered together
with its size and modification time, so unchanged files skip the trial on
the next run. Cache data is stored in the XDG cache directory (typically
~/.cache/smartzip/ratios).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached ratios",
	Long:  `Removes all cached ratios. The next run will probe every large file again.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cachePath, err := cachePath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Fprintln(out, "Cache is already empty.")
			return nil
		}

		store, err := cache.OpenStore(cachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()

		if err := store.Purge(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Fprintln(out, "Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays information about the cache including its location, size, and entry count.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cachePath, err := cachePath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "Cache: empty (no cache directory)")
			fmt.Fprintf(out, "Cache location: %s\n", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		var size int64
		var fileCount int
		err = filepath.WalkDir(cachePath, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				size += fi.Size()
				fileCount++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		store, err := cache.OpenStore(cachePath)
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer store.Close()

		entries, err := store.Count()
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}

		fmt.Fprintf(out, "Cache location: %s\n", cachePath)
		fmt.Fprintf(out, "Cache size: %s\n", types.FormatSize(size))
		fmt.Fprintf(out, "Cache files: %d\n", fileCount)
		fmt.Fprintf(out, "Cached ratios: %d\n", entries)
		fmt.Fprintf(out, "Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cachePath, err := cachePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cachePath)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cachePath returns the configured cache directory.
func cachePath() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Cache.Path, nil
}
