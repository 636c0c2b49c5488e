package order

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pushorder/internal/artifact"
	"github.com/roach88/pushorder/internal/capture"
)

func TestStaticPriority_NewsCapture(t *testing.T) {
	order, report := StaticPriority(loadNews(t), capture.MustNamer("", ""), nil)

	assert.Equal(t, 12, report.Accepted)
	assert.Equal(t, 1, report.Duplicates)
	assert.Empty(t, report.Unbucketed)

	data, err := artifact.Marshal(order)
	require.NoError(t, err)
	newGolden(t).Assert(t, "news_static", data)
}

func TestStaticPriority_BucketsBySizeAndDedupes(t *testing.T) {
	const base = "https://site.test/"
	entries := []capture.Entry{
		entry(0, base, capture.TypeDocument, 500, nil),
		entry(1, base+"big.css", capture.TypeStylesheet, 900, nil),
		entry(2, base+"small.css", capture.TypeStylesheet, 100, nil),
		entry(3, base+"small.css", capture.TypeStylesheet, 50, nil),
		entry(4, base+"feed.json", capture.TypeXHR, 10, nil),
		entry(5, base+"site.webmanifest", capture.TypeManifest, 5, nil),
		entry(6, base+"beacon", capture.TypeOther, 1, nil),
	}

	order, report := StaticPriority(entries, capture.MustNamer("", ""), nil)
	assert.Equal(t, []string{"index.html"}, order.Highest)
	assert.Equal(t, []string{"small.css", "big.css"}, order.High)
	assert.Equal(t, []string{"beacon", "site.webmanifest", "feed.json"}, order.Background)
	assert.Equal(t, []string{}, order.Normal)
	assert.Equal(t, 1, report.Duplicates)
}

func TestStaticPriority_IgnoresDependencies(t *testing.T) {
	const base = "https://site.test/"
	entries := []capture.Entry{
		entry(0, base+"late.js", capture.TypeScript, 10, nil),
		entry(1, base, capture.TypeDocument, 500, nil),
		entry(2, base+"early.js", capture.TypeScript, 1, nil),
	}

	order, _ := StaticPriority(entries, capture.MustNamer("", ""), nil)
	assert.Equal(t, []string{"index.html", "early.js", "late.js"}, order.Flatten())
}

func TestStaticPriority_UnknownTypeIsReported(t *testing.T) {
	c, err := capture.Load(strings.NewReader(`{"log":{"entries":[
		{"_resourceType":"document","request":{"url":"https://site.test/","headers":[]},"response":{"status":200,"content":{"size":500,"mimeType":"text/html"}}},
		{"_resourceType":"websocket","request":{"url":"wss://site.test/socket","headers":[]},"response":{"status":101,"content":{"size":0,"mimeType":""}}},
		{"_resourceType":"media","request":{"url":"https://site.test/v.mp4","headers":[]},"response":{"status":200,"content":{"size":9000,"mimeType":"video/mp4"}}},
		{"_resourceType":"image","request":{"url":"https://site.test/logo.png","headers":[]},"response":{"status":200,"content":{"size":40,"mimeType":"image/png"}}}
	]}}`))
	require.NoError(t, err)

	order, report := StaticPriority(c.Entries, capture.MustNamer("", ""), nil)
	assert.Equal(t, []int{1, 2}, report.Unbucketed)
	assert.Equal(t, []string{}, order.Background)
	assert.Equal(t, []string{"index.html", "logo.png"}, order.Flatten())
	assert.Equal(t, 2, report.Accepted)
}

func TestStaticPriority_MIMEFallbackWithoutCapturedType(t *testing.T) {
	c, err := capture.Load(strings.NewReader(`{"log":[
		{"url":"https://site.test/","mimeType":"text/html","size":1},
		{"url":"https://site.test/feed","mimeType":"application/json","size":2}
	]}`))
	require.NoError(t, err)

	order, report := StaticPriority(c.Entries, capture.MustNamer("", ""), nil)
	assert.Empty(t, report.Unbucketed)
	assert.Equal(t, []string{"feed"}, order.Background)
}

func TestStaticPriority_Empty(t *testing.T) {
	order, report := StaticPriority(nil, capture.MustNamer("", ""), nil)
	assert.Empty(t, order.Flatten())
	assert.Zero(t, report.Accepted)

	data, err := artifact.Marshal(order)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "null")
}
