package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/app"
	"github.com/JakeFAU/contact-extractor/internal/config"
	"github.com/JakeFAU/contact-extractor/internal/contact"
)

type cannedFetcher map[string]string

func (c cannedFetcher) Fetch(_ context.Context, url string) (contact.Page, error) {
	body, ok := c[url]
	if !ok {
		return contact.Page{}, &contact.FetchError{URL: url, Attempts: 3, Err: errors.New("unreachable")}
	}
	return contact.Page{URL: url, StatusCode: http.StatusOK, Body: []byte(body), Strategy: "browser"}, nil
}

// useFakeApp swaps the factory for one backed by canned pages. Tests using it
// must not run in parallel.
func useFakeApp(t *testing.T, pages cannedFetcher) {
	t.Helper()
	orig := newApp
	newApp = func(cfg config.Config, logger *zap.Logger) (*app.App, error) {
		cfg.Extract.PolitenessDelay = 0
		cfg.Extract.MaxRetries = 0
		return app.New(cfg, logger, app.Options{Registerer: prometheus.NewRegistry(), Fetcher: pages})
	}
	t.Cleanup(func() { newApp = orig })
}

func writeQuietConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  development: false\n  level: error\n"), 0o600))
	return path
}

func TestExtractCommandWritesCSVToStdout(t *testing.T) {
	useFakeApp(t, cannedFetcher{
		"a.com": "<p>x@a.com</p>",
		"b.com": `<a href="mailto:y@b.com">y</a>`,
	})

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", writeQuietConfig(t), "extract", "a.com", "dead.example", "b.com"})

	require.NoError(t, root.Execute())
	require.Equal(t, "URL,Email\na.com,x@a.com\nb.com,y@b.com\n", out.String())
}

func TestExtractCommandWritesOutputFile(t *testing.T) {
	useFakeApp(t, cannedFetcher{"a.com": "<p>x@a.com</p>"})
	dest := filepath.Join(t.TempDir(), "contacts.csv")

	root := newRootCmd()
	root.SetArgs([]string{"--config", writeQuietConfig(t), "extract", "--output", dest, "a.com"})

	require.NoError(t, root.Execute())
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "URL,Email\na.com,x@a.com\n", string(data))
}

func TestExtractCommandRequiresURL(t *testing.T) {
	useFakeApp(t, cannedFetcher{})

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeQuietConfig(t), "extract"})

	require.Error(t, root.Execute())
}

func TestRootFailsOnMissingConfig(t *testing.T) {
	useFakeApp(t, cannedFetcher{})

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml"), "extract", "a.com"})

	require.ErrorContains(t, root.Execute(), "load config")
}

func TestResolveAppWithoutInit(t *testing.T) {
	_, err := resolveApp(context.Background())
	require.Error(t, err)
}
