package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPasswordFromStdin(t *testing.T) {
	out, err := run(t, "s3cret-pass\n", "hash-password", "--cost", "4")
	require.NoError(t, err)
	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestHashPasswordFromFlag(t *testing.T) {
	out, err := run(t, "", "hash-password", "--cost", "4", "--password", "another-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("another-pass")))
}

func TestHashPasswordRejectsShortPassword(t *testing.T) {
	_, err := run(t, "short\n", "hash-password", "--cost", "4")
	assert.ErrorContains(t, err, "password must be")
}

func TestHashPasswordRequiresInput(t *testing.T) {
	_, err := run(t, "", "hash-password")
	assert.ErrorContains(t, err, "password is required")
}

func TestMigrateRejectsUnknownAction(t *testing.T) {
	_, err := run(t, "", "migrate", "sideways")
	assert.Error(t, err)
}

func TestMigrateRequiresAction(t *testing.T) {
	_, err := run(t, "", "migrate")
	assert.Error(t, err)
}

func TestUserCreateRequiresEmail(t *testing.T) {
	_, err := run(t, "", "user", "create", "--password", "long-enough")
	assert.ErrorContains(t, err, "email")
}

func TestPurgeRejectsNonPositiveRetention(t *testing.T) {
	_, err := run(t, "", "jobs", "purge-audit", "--retention", "0s")
	assert.ErrorContains(t, err, "retention must be positive")
}

func TestReadSecret(t *testing.T) {
	got, err := readSecret(strings.NewReader("line-one\r\nline-two\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "line-one", got)

	got, err = readSecret(strings.NewReader("ignored"), "from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", got)
}
