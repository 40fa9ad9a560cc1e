package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		e164     string
		national string
	}{
		{"(512) 555-0123", "+15125550123", "(512) 555-0123"},
		{"512.555.0123", "+15125550123", "(512) 555-0123"},
		{"5125550123", "+15125550123", "(512) 555-0123"},
		{"+1 512-555-0123", "+15125550123", "(512) 555-0123"},
		{"1-512-555-0123", "+15125550123", "(512) 555-0123"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			n, err := Parse(tt.in, "US")
			require.NoError(t, err)
			assert.Equal(t, tt.e164, n.E164)
			assert.Equal(t, tt.national, n.National)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "123", "not a phone", "(000) 000-0000"} {
		_, err := Parse(in, "")
		assert.Error(t, err, in)
	}
}

func TestE164(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+15125550123", E164("(512) 555-0123", ""))
	assert.Equal(t, "", E164("nope", "US"))
}

func TestFind(t *testing.T) {
	t.Parallel()

	text := `Call us at (512) 555-0123 or 512.555.0123. Fax: 737-555-0188.
Order #1234567 ships soon. Zip 78701.`
	got := Find(text, "US")
	require.Len(t, got, 2)
	assert.Equal(t, "+15125550123", got[0].E164)
	assert.Equal(t, "(512) 555-0123", got[0].Raw)
	assert.Equal(t, "+17375550188", got[1].E164)
}

func TestFind_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Find("", "US"))
	assert.Empty(t, Find("no numbers here", "US"))
}
