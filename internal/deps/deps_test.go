package deps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withPath(t *testing.T, installed ...string) {
	t.Helper()
	orig := lookPath
	lookPath = func(name string) (string, error) {
		for _, i := range installed {
			if i == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestCheckAcceptsAnyAlternative(t *testing.T) {
	withPath(t, "wl-copy")
	assert.Empty(t, check("linux"))
}

func TestCheckReportsMissingClipboard(t *testing.T) {
	withPath(t)
	missing := check("linux")
	require.Len(t, missing, 1)
	assert.Equal(t, "clipboard", missing[0].Name)
	assert.False(t, missing[0].Required)
	assert.Empty(t, MissingRequired(missing))
}

func TestCheckSkipsOtherPlatforms(t *testing.T) {
	withPath(t)
	assert.Empty(t, check("windows"))
	require.Len(t, check("darwin"), 1)
}
