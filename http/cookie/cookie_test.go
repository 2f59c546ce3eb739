package cookie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionFrom(t *testing.T) {
	t.Run("plain cookie header", func(t *testing.T) {
		token, found := SessionFrom("Cookie: session=abcdefghijklmnopqrst")
		require.True(t, found)
		require.Equal(t, "abcdefghijklmnopqrst", token)
	})

	t.Run("mixed case", func(t *testing.T) {
		token, found := SessionFrom("COOKIE: Session=ABCdef")
		require.True(t, found)
		require.Equal(t, "abcdef", token)
	})

	t.Run("trailing cookies are kept", func(t *testing.T) {
		token, found := SessionFrom("Cookie: session=abc; theme=dark")
		require.True(t, found)
		require.Equal(t, "abc; theme=dark", token)
	})

	t.Run("no marker", func(t *testing.T) {
		_, found := SessionFrom("Cookie: theme=dark")
		require.False(t, found)
	})
}

func TestString(t *testing.T) {
	require.Equal(t, "session=00000000000000000000", Session("00000000000000000000").String())
}
