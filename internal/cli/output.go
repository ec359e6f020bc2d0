// Package cli — output.go печатает результат команды в формате --format.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// printResult печатает v как JSON или как текст из textFn.
func (o *RootOptions) printResult(cmd *cobra.Command, v any, textFn func() string) error {
	return writeResult(cmd.OutOrStdout(), o.Format, v, textFn)
}

func writeResult(w io.Writer, format string, v any, textFn func() string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, textFn())
	return err
}
