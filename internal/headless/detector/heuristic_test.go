package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/adforge/internal/adforge"
)

func TestHeuristic_ShouldPromote(t *testing.T) {
	t.Parallel()

	bigStatic := "<html><body>" + strings.Repeat("<p>plain product copy</p>", 200) + "</body></html>"

	tests := []struct {
		name string
		resp adforge.FetchResponse
		want bool
	}{
		{name: "empty body", resp: adforge.FetchResponse{StatusCode: 200}, want: true},
		{name: "spa marker", resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<div id="__next"></div>`)}, want: true},
		{name: "script dense short page", resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<html><script>var a=1;</script><p>t</p></html>`)}, want: true},
		{name: "rendered product markup", resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(`<div id="root"><span id="productTitle">Widget</span></div>`)}, want: false},
		{name: "large static page", resp: adforge.FetchResponse{StatusCode: 200, Body: []byte(bigStatic)}, want: false},
		{name: "non 200", resp: adforge.FetchResponse{StatusCode: 404, Body: []byte("not found")}, want: false},
		{name: "already headless", resp: adforge.FetchResponse{StatusCode: 200, UsedHeadless: true}, want: false},
	}

	h := NewHeuristic(1000)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, h.ShouldPromote(tt.resp))
		})
	}
}

func TestNewHeuristicDefaultThreshold(t *testing.T) {
	t.Parallel()

	require.Equal(t, 2048, NewHeuristic(0).BodyLengthThreshold)
	require.Equal(t, 2048, NewHeuristic(-5).BodyLengthThreshold)
}

func TestScriptShare(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, scriptShare(nil))
	require.Equal(t, 0, scriptShare([]byte("<p>no scripts</p>")))
	require.Equal(t, 100, scriptShare([]byte("<SCRIPT>x</SCRIPT>")))
	require.Equal(t, 100, scriptShare([]byte("<script>never closed")))
	require.Equal(t, 50, scriptShare([]byte("<script></script>abcdefghijklmnopq")))
}
