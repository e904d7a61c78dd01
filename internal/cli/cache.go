package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cinchproject/jpm/pkg/cache"
)

// newCacheCmd creates the cache management command. It operates on the file
// backend; redis and mongo backends manage their own expiry server-side.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the update-center response cache",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

// fileCacheDir resolves the file cache directory from config without
// creating it.
func fileCacheDir(cmd *cobra.Command) (string, error) {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Cache.Backend != "" && cfg.Cache.Backend != "file" {
		return "", fmt.Errorf("cache command manages the file backend, config uses %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	fc, err := cache.NewFileCache("")
	if err != nil {
		return "", err
	}
	defer fc.Close()
	return fc.Dir(), nil
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached update-center responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := fileCacheDir(cmd)
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if !info.IsDir() {
					if err := os.Remove(path); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			// clean up now-empty shard directories
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if info.IsDir() {
					os.Remove(path)
				}
				return nil
			})

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := fileCacheDir(cmd)
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}
