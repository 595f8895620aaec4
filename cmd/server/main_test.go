package main

import (
    "bytes"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cementerio-ledger/internal/utils"
)

func TestHashPasswordCmd(t *testing.T) {
    cmd := hashPasswordCmd()
    var out bytes.Buffer
    cmd.SetIn(strings.NewReader("s3creto\n"))
    cmd.SetOut(&out)
    cmd.SetArgs([]string{"--cost", "4"})
    require.NoError(t, cmd.Execute())

    hash := strings.TrimSpace(out.String())
    assert.True(t, strings.HasPrefix(hash, "$2"))
    assert.True(t, utils.VerifyPassword(hash, "s3creto"))
}

func TestHashPasswordCmdRejectsEmptyInput(t *testing.T) {
    cmd := hashPasswordCmd()
    cmd.SetIn(strings.NewReader(""))
    cmd.SetOut(&bytes.Buffer{})
    cmd.SetArgs([]string{})
    assert.Error(t, cmd.Execute())
}

func TestMigrateRequiresMySQL(t *testing.T) {
    t.Setenv("STORE_DRIVER", "memory")
    cmd := migrateCmd()
    cmd.SetOut(&bytes.Buffer{})
    cmd.SetErr(&bytes.Buffer{})
    cmd.SetArgs([]string{"version"})
    err := cmd.Execute()
    require.Error(t, err)
    assert.Contains(t, err.Error(), "STORE_DRIVER=mysql")
}
