package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinchproject/jpm/pkg/errors"
)

func TestNew(t *testing.T) {
	r := New("git", "5.2.0")
	assert.Equal(t, "git", r.Name)
	assert.Equal(t, "5.2.0", r.Version)

	// Empty version falls back to the sentinel
	bare := New("git", "")
	assert.Equal(t, SentinelVersion, bare.Version)
}

func TestRef_SameAs(t *testing.T) {
	tests := []struct {
		name string
		a, b Ref
		want bool
	}{
		{"identical", New("git", "1.0"), New("git", "1.0"), true},
		{"different versions", New("git", "1.0"), New("git", "2.0"), true},
		{"case insensitive", New("CloudBees-Folder", "1.0"), New("cloudbees-folder", "9.9"), true},
		{"different names", New("git", "1.0"), New("git-client", "1.0"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameAs(tt.b))
			assert.Equal(t, tt.want, tt.b.SameAs(tt.a))
		})
	}
}

func TestRef_CompareVersion(t *testing.T) {
	a := New("git", "2.9")
	b := New("git", "2.10")

	got, err := a.CompareVersion(b)
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	got, err = b.CompareVersion(a)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	// Equal names and versions compare neither greater nor less
	got, err = a.CompareVersion(New("GIT", "2.9"))
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestRef_CompareVersion_NameMismatch(t *testing.T) {
	a := New("git", "1.0")
	b := New("subversion", "2.0")

	_, err := a.CompareVersion(b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNameMismatch))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.0", "1.0", 0},
		{"numeric segments", "2.9", "2.10", -1},
		{"numeric not lexical", "1.10", "1.9", 1},
		{"fewer segments is less", "1.0", "1.0.0", -1},
		{"more segments is greater", "1.0.1", "1.0", 1},
		{"sentinel loses", "0", "0.1", -1},
		{"lexical fallback", "1.0.beta", "1.0.alpha", 1},
		{"mixed numeric and alpha", "2.beta", "2.1", 1},
		{"long versions", "1.651.3", "1.651.2", 1},
		{"single segment", "2", "10", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
			assert.Equal(t, -tt.want, CompareVersions(tt.b, tt.a))
		})
	}
}

func TestRef_ListEntry(t *testing.T) {
	r := New("workflow-job", "1436.vfa_244484591f")
	assert.Equal(t, "workflow-job==1436.vfa_244484591f\n", r.ListEntry())
	assert.Equal(t, "workflow-job==1436.vfa_244484591f", r.String())
}

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Ref
		wantErr bool
	}{
		{"name and version", "git==5.2.0", New("git", "5.2.0"), false},
		{"bare name", "git", New("git", "0"), false},
		{"trailing newline", "git==5.2.0\n", New("git", "5.2.0"), false},
		{"surrounding spaces", "  git==5.2.0  ", New("git", "5.2.0"), false},

		{"blank line", "", Ref{}, true},
		{"whitespace only", "   ", Ref{}, true},
		{"missing version", "git==", Ref{}, true},
		{"missing name", "==5.2.0", Ref{}, true},
		{"double separator", "a==b==c", Ref{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEntry(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeMalformedEntry),
					"expected MALFORMED_ENTRY, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
