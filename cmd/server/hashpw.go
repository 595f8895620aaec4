package main

import (
    "bufio"
    "errors"
    "fmt"
    "strings"

    "github.com/spf13/cobra"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/cementerio-ledger/internal/utils"
)

// hashPasswordCmd prints a bcrypt hash for ADMIN_PASSWORD_HASH.  The
// password is read from stdin so it does not end up in shell history.
func hashPasswordCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "hash-password",
        Short: "Read a password from stdin and print its bcrypt hash",
        RunE: func(cmd *cobra.Command, args []string) error {
            cost, _ := cmd.Flags().GetInt("cost")
            line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
            if err != nil && line == "" {
                return errors.New("no password on stdin")
            }
            plain := strings.TrimRight(line, "\r\n")
            if plain == "" {
                return errors.New("empty password")
            }
            hash, err := utils.HashPassword(plain, cost)
            if err != nil {
                return err
            }
            fmt.Fprintln(cmd.OutOrStdout(), hash)
            return nil
        },
    }
    cmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
    return cmd
}
