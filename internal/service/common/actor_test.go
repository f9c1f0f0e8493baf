//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"os/user"
	"testing"

	"github.com/stretchr/testify/require"
)

var errNoUser = errors.New("no such user")

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
}

// TestCurrentUsername covers the sudo override and domain prefixes.
func TestCurrentUsername(t *testing.T) {
	t.Parallel()

	lookup := func(name string) func() (*user.User, error) {
		return func() (*user.User, error) {
			return &user.User{Username: name}, nil
		}
	}

	name, err := currentUsername(" kate ", lookup("root"))
	require.NoError(t, err)
	require.Equal(t, "kate", name)

	name, err = currentUsername("", lookup(`WORKGROUP\kate`))
	require.NoError(t, err)
	require.Equal(t, "kate", name)

	name, err = currentUsername("", lookup("kate"))
	require.NoError(t, err)
	require.Equal(t, "kate", name)

	_, err = currentUsername("", func() (*user.User, error) { return nil, errNoUser })
	require.ErrorIs(t, err, errNoUser)
}
