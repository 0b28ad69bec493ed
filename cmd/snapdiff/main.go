package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"snapdiff/internal/compare"
	"snapdiff/internal/config"
	"snapdiff/internal/progress"
	"snapdiff/internal/snapshot"
)

func main() {
	root := &cobra.Command{
		Use:           "snapdiff",
		Short:         "Directory integrity snapshots and tamper diffs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "config.yaml", "Config file path")
	root.PersistentFlags().BoolP("verbose", "v", false, "Print timing and throughput")
	root.AddCommand(newBuildCmd(), newCheckCmd(), newDiffCmd(), newLookupCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildSnapshot walks and hashes a directory with a progress bar, and
// prints the verbose timing line when asked.
func buildSnapshot(dir string, cfg *config.Config, verbose bool) (*snapshot.Snapshot, error) {
	fmt.Printf("Scanning directory: %s\n", dir)

	var bar *progress.Bar
	start := time.Now()
	snap, err := snapshot.Build(dir, cfg.Exclude, func(p snapshot.Progress) {
		if bar == nil {
			fmt.Printf("Found %d files (%d bytes)\n", p.Total, p.TotalBytes)
			bar = progress.New(int64(p.TotalBytes))
		}
		bar.SetDirectory(filepath.Dir(p.Path))
		bar.Add(int64(p.Bytes))
	})
	if err != nil {
		return nil, err
	}
	if bar != nil {
		bar.Finish()
	}

	if verbose {
		elapsed := time.Since(start).Seconds()
		mbps := 0.0
		if elapsed > 0 {
			mbps = float64(snap.TotalBytes()) / 1e6 / elapsed
		}
		fmt.Printf("Build took %.3f seconds, read %d bytes, %.1f MB/s\n",
			elapsed, snap.TotalBytes(), mbps)
	}

	return snap, nil
}

/// resolveFormat picks the snapshot format: the explicit flag wins, then
// the output file extension, then the config default.
func resolveFormat(flagValue string, cfg *config.Config, outputPath string) (string, error) {
	if flagValue != "" {
		if flagValue != config.FormatJSON && flagValue != config.FormatBinary {
			return "", fmt.Errorf("unknown snapshot format %q", flagValue)
		}
		return flagValue, nil
	}
	switch {
	case strings.HasSuffix(outputPath, ".json"):
		return config.FormatJSON, nil
	case strings.HasSuffix(outputPath, ".snap"):
		return config.FormatBinary, nil
	}
	return cfg.Format, nil
}

func saveSnapshot(snap *snapshot.Snapshot, path, format string) error {
	if format == config.FormatBinary {
		return snapshot.SaveBinary(snap, path)
	}
	return snapshot.SaveJSON(snap, path)
}

func newBuildCmd() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "build <directory>",
		Short: "Snapshot a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")

			absDir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to get absolute path: %w", err)
			}

			snap, err := buildSnapshot(absDir, cfg, verbose)
			if err != nil {
				return fmt.Errorf("failed to build snapshot: %w", err)
			}

			digest, err := snap.RootDigest()
			if err != nil {
				return err
			}

			if output == "" {
				output = cfg.OutputFile
			}
			form, err := resolveFormat(format, cfg, output)
			if err != nil {
				return err
			}
			if output == "" {
				ext := ".json"
				if form == config.FormatBinary {
					ext = ".snap"
				}
				output = filepath.Join("output", digest+ext)
			}

			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := saveSnapshot(snap, output, form); err != nil {
				return fmt.Errorf("failed to save snapshot: %w", err)
			}

			fmt.Printf("✓ Snapshot written successfully\n")
			fmt.Printf("  Root digest: %s\n", digest)
			fmt.Printf("  Files: %d (%d bytes)\n", snap.NumFiles(), snap.TotalBytes())
			fmt.Printf("  Output: %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output snapshot path")
	cmd.Flags().StringVar(&format, "format", "", "Snapshot format: json or binary")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <snapshot> <directory>",
		Short: "Rebuild a directory snapshot and diff it against a saved baseline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")

			absDir, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("failed to get absolute path: %w", err)
			}

			// The baseline load and the fresh build touch disjoint state,
			// so they can overlap.
			var baseline, current *snapshot.Snapshot
			var g errgroup.Group
			g.Go(func() error {
				var err error
				baseline, err = snapshot.Load(args[0])
				if err != nil {
					return fmt.Errorf("failed to load snapshot: %w", err)
				}
				return nil
			})
			g.Go(func() error {
				var err error
				current, err = buildSnapshot(absDir, cfg, verbose)
				if err != nil {
					return fmt.Errorf("failed to build snapshot: %w", err)
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			digest, err := baseline.RootDigest()
			if err != nil {
				return err
			}
			fmt.Printf("Loaded baseline snapshot (digest: %s)\n", digest)

			diff := compare.Snapshots(baseline, current)
			fmt.Print(compare.FormatReport(".", diff))

			if diff.HasChanges() {
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old-snapshot> <new-snapshot>",
		Short: "Diff two saved snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSnap, err := snapshot.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load snapshot %s: %w", args[0], err)
			}
			newSnap, err := snapshot.Load(args[1])
			if err != nil {
				return fmt.Errorf("failed to load snapshot %s: %w", args[1], err)
			}

			diff := compare.Snapshots(oldSnap, newSnap)
			fmt.Print(compare.FormatReport(".", diff))

			if diff.HasChanges() {
				os.Exit(1)
			}
			return nil
		},
	}
	return cmd
}

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <snapshot> <path>",
		Short: "Show one entry of a saved snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			entry, ok := snap.Lookup(args[1])
			if !ok {
				return fmt.Errorf("no entry for %q", args[1])
			}

			if entry.Kind() == snapshot.Directory {
				fmt.Printf("%s: directory with %d entries\n", args[1], entry.NumChildren())
				for _, name := range entry.ChildNames() {
					fmt.Printf("  %s\n", name)
				}
				return nil
			}

			m := entry.Metrics()
			fmt.Printf("%s:\n", args[1])
			fmt.Printf("  sha256:   %x\n", m.SHA256)
			fmt.Printf("  blake2b:  %x\n", m.Blake2b)
			fmt.Printf("  size:     %d\n", m.Size)
			fmt.Printf("  nul:      %v\n", m.Nul)
			fmt.Printf("  nonascii: %v\n", m.NonASCII)
			return nil
		},
	}
	return cmd
}
