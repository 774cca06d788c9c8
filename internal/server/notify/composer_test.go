package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_Compose(t *testing.T) {
	c, err := NewComposer("en", "https://portal.example/login.html")
	require.NoError(t, err)

	subject, body, err := c.Compose(Credential{Name: "Alice <b>", Email: "alice@example.com", Password: "Xy7pQ2mK9a"})
	require.NoError(t, err)

	assert.Equal(t, "Event Portal - Approval Confirmation", subject)
	assert.Contains(t, body, "Congratulations Alice &lt;b&gt;")
	assert.Contains(t, body, "Temporary Password: Xy7pQ2mK9a")
	assert.Contains(t, body, `href="https://portal.example/login.html"`)
	assert.False(t, strings.Contains(body, "<no value>"))
	assert.Contains(t, body, "ask an organiser to reissue your credentials")
	assert.NotContains(t, body, "change your password", "the portal has no password change")
}

func TestComposer_UnknownLocaleFallsBack(t *testing.T) {
	c, err := NewComposer("not a locale", "")
	require.NoError(t, err)

	subject, _, err := c.Compose(Credential{})
	require.NoError(t, err)
	assert.Equal(t, "Event Portal - Approval Confirmation", subject)
}
