package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/DocVault/internal/vault"
	"github.com/Hussein-Mazeh/DocVault/krypto"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List a manifest's cleartext metadata without unlocking",
	Long: `Inspect prints everything the manifest reveals without a passphrase:
document titles, priorities, tags, approximate sizes, and whether the
manifest carries an integrity seal. No keys are derived and nothing is
decrypted.`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := manifestPath()
	man, err := loadManifest(path)
	if err != nil {
		return err
	}

	fmt.Printf("Vault:      %s\n", path)
	fmt.Printf("Generated:  %s\n", man.GeneratedAt)
	fmt.Printf("Documents:  %d\n", len(man.Files))
	if man.Signed() {
		fmt.Printf("Integrity:  %s\n", color.GreenString("sealed (HMAC-SHA256)"))
	} else {
		fmt.Printf("Integrity:  %s\n", color.YellowString("UNSEALED"))
		log.Warnf("manifest has no integrity seal; metadata and ciphertext could have been reordered or swapped undetected")
	}
	fmt.Println()

	docs := make([]vault.Document, len(man.Files))
	copy(docs, man.Files)
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Priority.Rank() < docs[j].Priority.Rank()
	})

	for i, d := range docs {
		size := len(d.DataBytes()) - krypto.TagSize
		if size < 0 {
			size = 0
		}
		fmt.Printf("%3d. %s %s  (%s, ~%d bytes)\n", i+1, priorityLabel(d.Priority), d.Title, d.ID, size)
		if len(d.Tags) > 0 {
			fmt.Printf("     tags: %s\n", strings.Join(d.Tags, ", "))
		}
	}
	return nil
}

// priorityLabel renders a fixed-width colored priority tag.
func priorityLabel(p vault.Priority) string {
	s := fmt.Sprintf("[%-8s]", p)
	switch p {
	case vault.PriorityCritical:
		return color.New(color.FgRed, color.Bold).Sprint(s)
	case vault.PriorityHigh:
		return color.YellowString(s)
	case vault.PriorityLow:
		return color.New(color.Faint).Sprint(s)
	default:
		return s
	}
}
