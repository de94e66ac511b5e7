package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/DocVault/auth"
	"github.com/Hussein-Mazeh/DocVault/internal/author"
	"github.com/Hussein-Mazeh/DocVault/krypto"
	"github.com/Hussein-Mazeh/DocVault/store"
)

var (
	authorIn    string
	authorOut   string
	checkBreach bool
	allowWeak   bool
)

var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Encrypt a directory of documents into a vault manifest",
	Long: `Author walks a directory of text documents (.md, .markdown, .txt),
parses their optional front-matter metadata (title, priority, tags),
encrypts every body under a passphrase-derived key and writes a signed
manifest. Authoring is the only step that writes the manifest; the vault
is read-only afterwards.`,
	RunE: runAuthor,
}

func init() {
	authorCmd.Flags().StringVar(&authorIn, "in", "", "directory of source documents (required)")
	authorCmd.Flags().StringVar(&authorOut, "out", "", "manifest output path (default manifest.json)")
	authorCmd.Flags().BoolVar(&checkBreach, "check-breach", false, "check the passphrase against the HIBP breach corpus (network)")
	authorCmd.Flags().BoolVar(&allowWeak, "allow-weak", false, "skip the passphrase strength policy")
	_ = authorCmd.MarkFlagRequired("in")
}

func runAuthor(cmd *cobra.Command, args []string) error {
	out := authorOut
	if out == "" {
		out = manifestPath()
	} else {
		out = store.ResolveManifestPath(out)
	}

	log.Debugf("scanning %s", authorIn)
	sources, err := author.ScanDir(authorIn)
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no source documents (.md, .markdown, .txt) under %s", authorIn)
	}
	log.Infof("found %d documents", len(sources))

	pw, err := promptNewPassphrase()
	if err != nil {
		return err
	}
	defer krypto.Zero(pw)

	if allowWeak {
		log.Warnf("passphrase policy skipped (--allow-weak)")
	} else if err := auth.ValidatePassphrase(string(pw)); err != nil {
		if errors.Is(err, auth.ErrWeakPassphrase) {
			return fmt.Errorf("%v (zxcvbn score %d, need %d; use --allow-weak to override)",
				err, auth.Strength(string(pw)), auth.MinScore)
		}
		return err
	}

	if checkBreach {
		res, err := auth.CheckHIBP(context.Background(), string(pw))
		if err != nil {
			return fmt.Errorf("breach check failed: %w (re-run without --check-breach to skip)", err)
		}
		if res.Found {
			return fmt.Errorf("passphrase appears in %d known breaches; choose another", res.Count)
		}
		log.Infof("passphrase not found in the breach corpus")
	}

	spin, cleanup := startSpinner("Deriving keys and encrypting documents...")
	man, err := author.Build(pw, sources)
	if err != nil {
		cleanup()
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := store.Save(out, man); err != nil {
		cleanup()
		return fmt.Errorf("write manifest: %w", err)
	}
	spin.FinalMSG = color.GreenString("✓") + fmt.Sprintf(" Encrypted %d documents into %s", len(man.Files), out)
	cleanup()

	log.Infof("manifest sealed; document order and nonces are now fixed")
	return nil
}
