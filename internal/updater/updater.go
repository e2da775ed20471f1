// Package updater checks GitHub Releases for a newer archkit and can
// replace the running binary with it.
//
// Release archives follow GoReleaser's default name template:
// archkit_<version>_<os>_<arch>.tar.gz, or .zip on Windows.
package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// Repo is the GitHub repository releases are published to.
	Repo = "HendryAvila/archkit"

	// BinaryName is the executable inside each release archive.
	BinaryName = "archkit"

	defaultTimeout = 10 * time.Second

	// maxBinarySize caps how much of an archive entry is read into memory.
	maxBinarySize = 200 << 20
)

// ErrUpToDate is returned by Apply when no newer release exists.
var ErrUpToDate = errors.New("already at the latest version")

// Release holds the fields archkit uses from a GitHub release.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file of a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Result compares the running version with the latest release.
type Result struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
	ReleaseURL      string `json:"releaseUrl"`
}

// Client talks to the releases API. The zero value is not usable; call New.
type Client struct {
	endpoint string
	http     *http.Client
	goos     string
	goarch   string
	execPath func() (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the latest-release URL.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPlatform overrides the OS and architecture used to pick an asset.
func WithPlatform(goos, goarch string) Option {
	return func(c *Client) { c.goos, c.goarch = goos, goarch }
}

// WithExecutable sets the path of the binary Apply replaces.
func WithExecutable(path string) Option {
	return func(c *Client) { c.execPath = func() (string, error) { return path, nil } }
}

// New returns a client for the archkit releases.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: "https://api.github.com/repos/" + Repo + "/releases/latest",
		http:     &http.Client{Timeout: defaultTimeout},
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		execPath: currentExecutable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest fetches the newest published release.
func (c *Client) Latest(ctx context.Context, currentVersion string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", BinaryName+"/"+currentVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var r Release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing release info: %w", err)
	}
	return &r, nil
}

// Check reports whether a release newer than currentVersion exists.
// Development builds ("dev" or any non-semver string) never have updates.
func (c *Client) Check(ctx context.Context, currentVersion string) (*Result, error) {
	r, err := c.Latest(ctx, currentVersion)
	if err != nil {
		return nil, err
	}
	return compare(currentVersion, r), nil
}

// Apply downloads the release archive for this platform and swaps it in
// for the running executable. It returns ErrUpToDate when there is
// nothing newer.
func (c *Client) Apply(ctx context.Context, currentVersion string) (*Result, error) {
	r, err := c.Latest(ctx, currentVersion)
	if err != nil {
		return nil, err
	}
	res := compare(currentVersion, r)
	if !res.UpdateAvailable {
		return res, ErrUpToDate
	}

	name := c.assetName(res.LatestVersion)
	i := indexAsset(r.Assets, name)
	if i < 0 {
		return res, fmt.Errorf("no release asset for %s/%s (looking for %s)", c.goos, c.goarch, name)
	}

	archive, err := c.download(ctx, r.Assets[i].BrowserDownloadURL)
	if err != nil {
		return res, err
	}
	bin, err := extractBinary(archive, name)
	if err != nil {
		return res, fmt.Errorf("extracting binary: %w", err)
	}

	path, err := c.execPath()
	if err != nil {
		return res, fmt.Errorf("finding current executable: %w", err)
	}
	if err := replaceBinary(path, bin, c.goos); err != nil {
		return res, err
	}
	return res, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBinarySize))
	if err != nil {
		return nil, fmt.Errorf("reading download: %w", err)
	}
	return data, nil
}

// assetName is the archive name for version on the client's platform.
func (c *Client) assetName(version string) string {
	ext := "tar.gz"
	if c.goos == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", BinaryName, version, c.goos, c.goarch, ext)
}

func compare(currentVersion string, r *Release) *Result {
	res := &Result{
		CurrentVersion: normalizeVersion(currentVersion),
		LatestVersion:  normalizeVersion(r.TagName),
		ReleaseURL:     r.HTMLURL,
	}
	res.UpdateAvailable = isNewer(res.CurrentVersion, res.LatestVersion)
	return res
}

func indexAsset(assets []Asset, name string) int {
	for i, a := range assets {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// replaceBinary writes bin next to path and renames it over path. Windows
// cannot overwrite a running binary, so the old one is moved aside first.
func replaceBinary(path string, bin []byte, goos string) error {
	tmp := path + ".new"
	if err := os.WriteFile(tmp, bin, 0o755); err != nil {
		return fmt.Errorf("writing new binary: %w", err)
	}
	if goos == "windows" {
		old := path + ".old"
		_ = os.Remove(old)
		if err := os.Rename(path, old); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("backing up current binary: %w", err)
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing binary: %w", err)
	}
	return nil
}

func currentExecutable() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(p)
}

// extractBinary returns the archkit executable inside a release archive.
func extractBinary(archive []byte, assetName string) ([]byte, error) {
	if strings.HasSuffix(assetName, ".zip") {
		return extractFromZip(archive)
	}
	return extractFromTarGz(archive)
}

func extractFromTarGz(archive []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if isBinary(hdr.Name) {
			return io.ReadAll(io.LimitReader(tr, maxBinarySize))
		}
	}
	return nil, fmt.Errorf("%s binary not found in archive", BinaryName)
}

func extractFromZip(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if !isBinary(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(io.LimitReader(rc, maxBinarySize))
	}
	return nil, fmt.Errorf("%s binary not found in archive", BinaryName)
}

func isBinary(name string) bool {
	base := filepath.Base(name)
	return base == BinaryName || base == BinaryName+".exe"
}

// normalizeVersion strips one leading "v".
func normalizeVersion(v string) string {
	return strings.TrimPrefix(v, "v")
}

// isNewer reports whether latest is a higher semantic version than
// current. Invalid versions, including "dev", never compare as newer.
func isNewer(current, latest string) bool {
	cv, lv := "v"+current, "v"+latest
	if !semver.IsValid(cv) || !semver.IsValid(lv) {
		return false
	}
	return semver.Compare(lv, cv) > 0
}
