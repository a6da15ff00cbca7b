package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Pages(t *testing.T) {
	content := `<html><head><title>Leave Policy</title><style>p{color:red}</style></head>
<body>
<nav><a href="/">Home</a></nav>
<h1>Vacation</h1>
<p>Employees get <strong>25 days</strong>.</p>
<script>track()</script>
<ul><li>Carry over 5</li></ul>
</body></html>`

	pages, err := New().Pages(context.Background(), "policy.html", []byte(content))
	require.NoError(t, err)
	require.Len(t, pages, 1)

	text := pages[0].Text
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, text, "Leave Policy")
	assert.Contains(t, text, "# Vacation")
	assert.Contains(t, text, "**25 days**")
	assert.Contains(t, text, "Carry over 5")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "Home")
}

func TestSource_ToText_Fragment(t *testing.T) {
	text, err := New().ToText([]byte("<p>just a fragment</p>"))
	require.NoError(t, err)
	assert.Equal(t, "just a fragment", text)
}
