package lib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMTP_PASSWORD", "")
	os.Unsetenv("SMTP_PASSWORD")
	t.Cleanup(func() { os.Unsetenv("SMTP_PASSWORD") })

	n := ExportSecrets(`{"JWT_SECRET":"from-secret","SMTP_PASSWORD":"hunter2"}`)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from-env", os.Getenv("JWT_SECRET"))
	assert.Equal(t, "hunter2", os.Getenv("SMTP_PASSWORD"))
}
