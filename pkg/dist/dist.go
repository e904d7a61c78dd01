// Package dist compiles a Jenkins distribution tree for supported LTS lines.
//
// A distribution pairs the plugin lists for an x.y line with every x.y.z
// artifact published for it: RPMs from the stable package repository and WARs
// from the stable mirror. The tree layout is
//
//	<dist>/plugins/<x.y>/default.txt
//	<dist>/plugins/<x.y>/optional.txt
//	<dist>/rpm/jenkins-<x.y.z>-....rpm
//	<dist>/war/jenkins-<x.y.z>.war
//
// Artifacts are discovered by scraping the directory indexes and downloaded
// concurrently. Files already present on disk are never re-downloaded, so
// compiling is incremental and restartable.
package dist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/cinchproject/jpm/pkg/errors"
)

const (
	// DefaultRPMBaseURL indexes the stable RPM packages.
	DefaultRPMBaseURL = "https://pkg.jenkins.io/redhat-stable/"
	// DefaultWarBaseURL indexes the stable WAR releases, one directory per x.y.z.
	DefaultWarBaseURL = "https://mirrors.jenkins.io/war-stable/"
)

const (
	workers     = 8
	httpTimeout = 10 * time.Minute // WARs run to ~100MB
)

// listNames are the plugin lists that belong in a distribution; other .txt
// files next to them are ignored.
var listNames = []string{"default.txt", "optional.txt"}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// Options configures a Compiler. Zero values select the public Jenkins
// endpoints and a silent logger.
type Options struct {
	RPMBaseURL string
	WarBaseURL string
	Logger     func(format string, args ...any)
}

// Compiler assembles distribution trees.
type Compiler struct {
	http    *http.Client
	rpmBase string
	warBase string
	logf    func(format string, args ...any)
}

// NewCompiler creates a Compiler with the given options.
func NewCompiler(opts Options) *Compiler {
	rpmBase := opts.RPMBaseURL
	if rpmBase == "" {
		rpmBase = DefaultRPMBaseURL
	}
	warBase := opts.WarBaseURL
	if warBase == "" {
		warBase = DefaultWarBaseURL
	}
	logf := opts.Logger
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Compiler{
		http:    &http.Client{Timeout: httpTimeout},
		rpmBase: ensureSlash(rpmBase),
		warBase: ensureSlash(warBase),
		logf:    logf,
	}
}

// artifact is one remote file and its destination in the dist tree.
type artifact struct {
	url  string
	path string
}

// Compile builds the distribution tree under distDir for every given LTS
// line. Plugin lists are read from listsDir/<x.y>/; a line without a plugin
// list directory fails the run before anything is downloaded.
func (c *Compiler) Compile(ctx context.Context, listsDir, distDir string, xyVersions []string) error {
	if len(xyVersions) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no x.y versions to compile")
	}

	for _, xy := range xyVersions {
		if err := c.copyLists(listsDir, distDir, xy); err != nil {
			return err
		}
	}

	for _, sub := range []string{"rpm", "war"} {
		if err := os.MkdirAll(filepath.Join(distDir, sub), 0o755); err != nil {
			return err
		}
	}

	var artifacts []artifact
	for _, xy := range xyVersions {
		rpms, err := c.rpmArtifacts(ctx, distDir, xy)
		if err != nil {
			return err
		}
		wars, err := c.warArtifacts(ctx, distDir, xy)
		if err != nil {
			return err
		}
		artifacts = append(artifacts, rpms...)
		artifacts = append(artifacts, wars...)
	}

	return c.download(ctx, artifacts)
}

// copyLists copies the distribution plugin lists for one x.y line into the
// dist tree.
func (c *Compiler) copyLists(listsDir, distDir, xy string) error {
	srcDir := filepath.Join(listsDir, xy)
	if _, err := os.Stat(srcDir); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "no plugin lists for %s in %s", xy, listsDir)
	}

	destDir := filepath.Join(distDir, "plugins", xy)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	for _, name := range listNames {
		src := filepath.Join(srcDir, name)
		data, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		dest := filepath.Join(destDir, name)
		c.logf("copying %s to %s", src, dest)
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// rpmArtifacts scrapes the RPM index for jenkins-<x.y>.* packages.
func (c *Compiler) rpmArtifacts(ctx context.Context, distDir, xy string) ([]artifact, error) {
	hrefs, err := c.indexHrefs(ctx, c.rpmBase)
	if err != nil {
		return nil, err
	}

	prefix := "jenkins-" + xy + "."
	var out []artifact
	for _, href := range hrefs {
		name := path.Base(href)
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".rpm") {
			continue
		}
		out = append(out, artifact{
			url:  c.rpmBase + name,
			path: filepath.Join(distDir, "rpm", name),
		})
	}
	return out, nil
}

// warArtifacts scrapes the WAR index, where each x.y.z release is a
// directory holding a jenkins.war.
func (c *Compiler) warArtifacts(ctx context.Context, distDir, xy string) ([]artifact, error) {
	hrefs, err := c.indexHrefs(ctx, c.warBase)
	if err != nil {
		return nil, err
	}

	prefix := xy + "."
	var out []artifact
	for _, href := range hrefs {
		xyz := strings.Trim(path.Base(strings.TrimSuffix(href, "/")), "/")
		if !strings.HasPrefix(xyz, prefix) || !strings.HasSuffix(href, "/") {
			continue
		}
		out = append(out, artifact{
			url:  c.warBase + xyz + "/jenkins.war",
			path: filepath.Join(distDir, "war", fmt.Sprintf("jenkins-%s.war", xyz)),
		})
	}
	return out, nil
}

// indexHrefs fetches a directory index page and extracts its anchor hrefs.
func (c *Compiler) indexHrefs(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch index %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeNetwork, "fetch index %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read index %s", url)
	}

	var hrefs []string
	for _, m := range hrefPattern.FindAllStringSubmatch(string(body), -1) {
		hrefs = append(hrefs, m[1])
	}
	return hrefs, nil
}

// download fetches all artifacts through a fixed-size worker pool. Failures
// are logged and counted rather than aborting the remaining downloads.
func (c *Compiler) download(ctx context.Context, artifacts []artifact) error {
	jobs := make(chan artifact)
	var wg sync.WaitGroup

	var mu sync.Mutex
	failed := 0
	var firstErr error

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := c.fetchArtifact(ctx, a); err != nil {
					c.logf("download failed: %s: %v", a.url, err)
					mu.Lock()
					failed++
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, a := range artifacts {
		jobs <- a
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return errors.Wrap(errors.ErrCodeNetwork, firstErr, "%d of %d artifact downloads failed", failed, len(artifacts))
	}
	return nil
}

// fetchArtifact streams one artifact to disk. Existing files are kept as-is.
// The download goes to a temp file first so an interrupted run never leaves
// a truncated artifact behind.
func (c *Compiler) fetchArtifact(ctx context.Context, a artifact) error {
	if _, err := os.Stat(a.path); err == nil {
		c.logf("%s exists, skipping download", a.path)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", a.url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", a.url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeNetwork, err, "download %s", a.url)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	c.logf("downloaded %s", a.path)
	return os.Rename(tmp.Name(), a.path)
}

func ensureSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
