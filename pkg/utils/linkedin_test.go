package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJobURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "strips tracking parameters",
			raw:  "https://www.linkedin.com/jobs/view/backend-engineer-at-acme-3812345678?refId=abc&trackingId=xyz",
			want: "https://www.linkedin.com/jobs/view/backend-engineer-at-acme-3812345678",
		},
		{
			name: "lowercases host and drops trailing slash",
			raw:  "https://UK.LinkedIn.com/jobs/view/3812345678/#top",
			want: "https://uk.linkedin.com/jobs/view/3812345678",
		},
		{
			name: "resolves relative hrefs",
			raw:  "/jobs/view/3812345678?position=1",
			want: "https://www.linkedin.com/jobs/view/3812345678",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJobURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := CanonicalJobURL("   ")
	assert.Error(t, err)
}

func TestExtractLinkedInJobID(t *testing.T) {
	id, err := ExtractLinkedInJobID("https://www.linkedin.com/jobs/view/go-developer-at-initech-4021112223")
	require.NoError(t, err)
	assert.Equal(t, "4021112223", id)

	id, err = ExtractLinkedInJobID("https://www.linkedin.com/jobs/collections/recommended/?currentJobId=99887766")
	require.NoError(t, err)
	assert.Equal(t, "99887766", id)

	_, err = ExtractLinkedInJobID("https://example.com/jobs/view/123")
	assert.Error(t, err)
}

func TestBuildSearchURL(t *testing.T) {
	params := url.Values{}
	params.Set("keywords", "golang developer")
	params.Set("location", "Berlin")
	params.Set("f_JT", "F")

	got, err := BuildSearchURL("", params)
	require.NoError(t, err)
	assert.Equal(t, "https://www.linkedin.com/jobs/search/?f_JT=F&keywords=golang+developer&location=Berlin", got)
}
