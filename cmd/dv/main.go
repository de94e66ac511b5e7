// Command dv is the DocVault CLI: it authors encrypted vault manifests,
// inspects their cleartext metadata, and opens an interactive unlocked
// session guarded by the progressive-lockout limiter.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/DocVault/internal/config"
	"github.com/Hussein-Mazeh/DocVault/internal/logging"
	"github.com/Hussein-Mazeh/DocVault/internal/vault"
	"github.com/Hussein-Mazeh/DocVault/store"
)

var (
	verbose      bool
	debug        bool
	manifestFlag string

	log logging.Logger
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dv",
	Short: "DocVault - a client-side encrypted document vault",
	Long: `DocVault keeps a static bundle of encrypted documents that unlocks
entirely on this device with a passphrase. No server, no network, no
secret other than the passphrase.

Author a vault once from a directory of text documents, then open it
anywhere the manifest travels:

  dv author --in ./docs --out manifest.json
  dv open --manifest manifest.json
  dv inspect --manifest manifest.json
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.Logger{Verbose: verbose, Debug: debug}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log.Debugf("config loaded: manifest=%q lockout=%q", cfg.ManifestPath, cfg.LockoutPath)
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().StringVarP(&manifestFlag, "manifest", "m", "", "path to the vault manifest (overrides config)")

	rootCmd.AddCommand(authorCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	// The zero Logger still prints errors, so this works even when Execute
	// fails before PersistentPreRunE built the configured one.
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// manifestPath resolves the manifest location: flag, then config, then the
// default name in the working directory.
func manifestPath() string {
	if manifestFlag != "" {
		return store.ResolveManifestPath(manifestFlag)
	}
	if cfg.ManifestPath != "" {
		return store.ResolveManifestPath(cfg.ManifestPath)
	}
	return store.ResolveManifestPath("")
}

// loadManifest reads the manifest at path, translating a missing file into
// the empty-vault presentation.
func loadManifest(path string) (*vault.Manifest, error) {
	man, err := store.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no vault manifest at %s (author one with 'dv author')", path)
		}
		if errors.Is(err, vault.ErrMalformedManifest) {
			return nil, fmt.Errorf("vault manifest at %s is malformed: %w", path, err)
		}
		return nil, err
	}
	return man, nil
}
