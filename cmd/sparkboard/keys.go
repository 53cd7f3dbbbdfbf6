package main

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

func newKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate SPARKBOARD_COOKIE_HASH_KEY and SPARKBOARD_COOKIE_BLOCK_KEY values (base64)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash := securecookie.GenerateRandomKey(64)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return errors.New("keys: random source unavailable")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export SPARKBOARD_COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "export SPARKBOARD_COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
