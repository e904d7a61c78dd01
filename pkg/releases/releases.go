// Package releases derives the supported Jenkins LTS version calendar from
// the redhat-stable RPM repository metadata.
//
// The repository's repodata is the only machine-readable source that pairs
// LTS version numbers with build dates, so the support windows are computed
// from it: repomd.xml locates the gzipped primary package list, and the
// jenkins packages in that list supply (version, build date) pairs. Support
// runs on a 6-month cycle anchored at 2017-09-01 (Jenkins 2.60); the window
// before that is pinned to the 1.651 line.
package releases

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cinchproject/jpm/pkg/cache"
	"github.com/cinchproject/jpm/pkg/errors"
	"github.com/cinchproject/jpm/pkg/plugin"
)

// DefaultRepoURL is the stable RPM repository whose metadata carries the LTS
// release calendar.
const DefaultRepoURL = "https://pkg.jenkins.io/redhat-stable/"

const (
	repomdPath  = "repodata/repomd.xml"
	httpTimeout = 30 * time.Second

	// cycleMonths is the length of one rolling support window.
	cycleMonths = 6
)

var (
	// cycleEpoch is the synthetic first window, pinned to the 1.651 line.
	cycleEpoch = time.Date(2017, time.March, 1, 0, 0, 0, 0, time.UTC)
	// cycleAnchor is the start of the real rolling support cycle (Jenkins 2.60).
	cycleAnchor = time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)
)

// seedXY is the LTS line assumed for the window before the cycle anchor.
const seedXY = "1.651"

// Build is one jenkins RPM from the repository package list.
type Build struct {
	XYZ  string    // full version, e.g. "2.346.3"
	XY   string    // LTS line, e.g. "2.346"
	Date time.Time // package build timestamp
}

// Supported describes one support window: the LTS line supported from
// SupportBegins, and the newest release on that line.
type Supported struct {
	SupportBegins time.Time
	XY            string
	XYZ           string
	BuildDate     time.Time
}

// SupportEnds returns the end of the window: windows overlap, each line is
// supported for a full year from its start.
func (s Supported) SupportEnds() time.Time {
	return s.SupportBegins.AddDate(1, 0, 0)
}

// Client fetches the RPM repository metadata.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client for the repository at baseURL. An empty baseURL
// defaults to [DefaultRepoURL].
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultRepoURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
	}
}

// repomd.xml: locates the primary package list.
type repomd struct {
	Data []struct {
		Type     string `xml:"type,attr"`
		Location struct {
			Href string `xml:"href,attr"`
		} `xml:"location"`
	} `xml:"data"`
}

// primary package list: jenkins RPM versions and build times.
type primaryMetadata struct {
	Packages []struct {
		Type    string `xml:"type,attr"`
		Name    string `xml:"name"`
		Version struct {
			Ver string `xml:"ver,attr"`
		} `xml:"version"`
		Time struct {
			Build int64 `xml:"build,attr"`
		} `xml:"time"`
	} `xml:"package"`
}

// Builds downloads and parses the repository metadata, returning every
// jenkins build at or above the 1.651 line.
func (c *Client) Builds(ctx context.Context) ([]Build, error) {
	var md repomd
	if err := c.getXML(ctx, c.baseURL+repomdPath, &md); err != nil {
		return nil, err
	}

	primaryHref := ""
	for _, d := range md.Data {
		if d.Type == "primary" {
			primaryHref = d.Location.Href
			break
		}
	}
	if primaryHref == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "repomd.xml at %s has no primary package list", c.baseURL)
	}

	var pm primaryMetadata
	if err := c.getXML(ctx, c.baseURL+primaryHref, &pm); err != nil {
		return nil, err
	}

	var builds []Build
	for _, p := range pm.Packages {
		if p.Type != "rpm" || p.Name != "jenkins" {
			continue
		}
		if plugin.CompareVersions(p.Version.Ver, seedXY) < 0 {
			// pre-LTS era, out of scope
			continue
		}
		builds = append(builds, Build{
			XYZ:  p.Version.Ver,
			XY:   xyOf(p.Version.Ver),
			Date: time.Unix(p.Time.Build, 0).UTC(),
		})
	}
	return builds, nil
}

// Supported is shorthand for Builds followed by [SupportedVersions] at now.
func (c *Client) Supported(ctx context.Context, now time.Time) ([]Supported, error) {
	builds, err := c.Builds(ctx)
	if err != nil {
		return nil, err
	}
	return SupportedVersions(builds, now), nil
}

// getXML downloads url and XML-decodes it into v, transparently gunzipping
// payloads with a .gz href. The download is retried; decoding happens once,
// on the complete payload.
func (c *Client) getXML(ctx context.Context, url string, v any) error {
	var raw []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 500:
			return cache.Retryable(errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, resp.StatusCode))
		default:
			return errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, resp.StatusCode)
		}

		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
		}
		return nil
	})
	if err != nil {
		return err
	}

	var body io.Reader = bytes.NewReader(raw)
	if strings.HasSuffix(url, ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "gunzip %s", url)
		}
		defer gz.Close()
		body = gz
	}

	if err := xml.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", url)
	}
	return nil
}

// SupportedVersions computes the support calendar from the known builds.
//
// For every window start date, the supported LTS line is the highest x.y
// whose first build predates the window, and the reported release is the
// newest x.y.z on that line. The synthetic first window is pinned to the
// 1.651 line when such builds exist. Windows later than now are omitted.
// The result is ordered oldest window first.
func SupportedVersions(builds []Build, now time.Time) []Supported {
	lines := groupByLine(builds)
	if len(lines) == 0 {
		return nil
	}

	xys := make([]string, 0, len(lines))
	for xy := range lines {
		xys = append(xys, xy)
	}
	sort.Slice(xys, func(i, j int) bool {
		return plugin.CompareVersions(xys[i], xys[j]) < 0
	})

	var out []Supported
	for _, begin := range windowStarts(now) {
		if begin.Before(cycleAnchor) {
			if line, ok := lines[seedXY]; ok {
				out = append(out, supportedAt(begin, seedXY, line))
			}
			continue
		}

		// highest line whose first build predates this window
		chosen := ""
		for _, xy := range xys {
			if lines[xy][0].Date.After(begin) {
				break
			}
			chosen = xy
		}
		if chosen == "" {
			continue
		}
		out = append(out, supportedAt(begin, chosen, lines[chosen]))
	}
	return out
}

// Latest returns the newest supported release, if any.
func Latest(supported []Supported) (Supported, bool) {
	if len(supported) == 0 {
		return Supported{}, false
	}
	return supported[len(supported)-1], true
}

// groupByLine buckets builds per LTS line, each bucket sorted by version so
// the x.y.1 release is first and the newest release last.
func groupByLine(builds []Build) map[string][]Build {
	lines := make(map[string][]Build)
	for _, b := range builds {
		lines[b.XY] = append(lines[b.XY], b)
	}
	for _, group := range lines {
		sort.Slice(group, func(i, j int) bool {
			return plugin.CompareVersions(group[i].XYZ, group[j].XYZ) < 0
		})
	}
	return lines
}

// windowStarts yields every support window start from the synthetic epoch up
// to now. Windows up to the cycle anchor are always included, matching the
// original support policy bootstrap.
func windowStarts(now time.Time) []time.Time {
	var starts []time.Time
	for d := cycleEpoch; !d.After(cycleAnchor) || !d.After(now); d = d.AddDate(0, cycleMonths, 0) {
		starts = append(starts, d)
	}
	return starts
}

func supportedAt(begin time.Time, xy string, line []Build) Supported {
	newest := line[len(line)-1]
	return Supported{
		SupportBegins: begin,
		XY:            xy,
		XYZ:           newest.XYZ,
		BuildDate:     newest.Date,
	}
}

func xyOf(xyz string) string {
	parts := strings.SplitN(xyz, ".", 3)
	if len(parts) < 2 {
		return xyz
	}
	return parts[0] + "." + parts[1]
}
