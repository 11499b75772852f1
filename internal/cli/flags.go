package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/export"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func ParseExportFormat(cmd *cobra.Command) (export.Format, error) {
	value, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to read --format flag: %w", err)
	}
	return export.ParseFormat(value)
}

// rootPath returns the positional path argument, else --root, else ".".
func rootPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	root, err := OptionalStringFlag(cmd, "root")
	if err != nil {
		return "", err
	}
	if root == "" {
		root = "."
	}
	return root, nil
}
