package platform_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lukman83/dealdesk/internal/platform"
)

func TestLookupFallsBackToEbay(t *testing.T) {
	rq := require.New(t)

	m, known := platform.Lookup("craigslist")
	rq.False(known)
	rq.Equal("ebay", m.Name)

	m, known = platform.Lookup("Poshmark")
	rq.True(known)
	rq.Equal("poshmark", m.Name)
	rq.Equal("0.2", m.FinalValueFeeRate.String())
}

func TestGetUnknown(t *testing.T) {
	_, err := platform.Get("nowhere")
	require.EqualError(t, err, `platform "nowhere" not registered`)
}

func TestList(t *testing.T) {
	require.Subset(t, platform.List(), []string{"ebay", "facebook", "local", "mercari", "poshmark"})
}

func TestTruncateTitle(t *testing.T) {
	rq := require.New(t)
	ebay, err := platform.Get("ebay")
	rq.NoError(err)

	short := "Nintendo Switch OLED"
	rq.Equal(short, ebay.TruncateTitle(short))

	long := ""
	for len(long) < 100 {
		long += "abcdefghij"
	}
	got := ebay.TruncateTitle(long)
	rq.Len(got, 80)
	rq.Equal("...", got[77:])

	local, err := platform.Get("local")
	rq.NoError(err)
	rq.Equal(long, local.TruncateTitle(long))
}
