package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/outreach"
	"github.com/sells-group/lead-cli/internal/pipeline"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "process", "state", "presets"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lead-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("input")
	require.NotNil(t, flag, "run command should have --input flag")
	assert.Equal(t, "input.json", flag.DefValue)

	for _, name := range []string{"out", "format", "preset", "delta", "leads-out"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s flag", name)
	}
}

func TestProcessCommand_Flags(t *testing.T) {
	flag := processCmd.Flags().Lookup("preset")
	require.NotNil(t, flag)
	assert.Equal(t, "localService", flag.DefValue)

	flag = processCmd.Flags().Lookup("in")
	require.NotNil(t, flag)
	assert.Equal(t, "leads.json", flag.DefValue)
}

func TestStateCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range stateCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"show", "reset", "prune"} {
		assert.True(t, names[name], "state should have subcommand %q", name)
	}
}

func TestLoadRunInput_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "keywords": ["plumber"],
  "locations": ["Austin, TX"],
  "sources": {"yelp": true},
  "deltaMode": true,
  "ai": {"enabled": true, "provider": "anthropic"}
}`), 0o644))
	in, err := loadRunInput(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"plumber"}, in.Keywords)
	assert.True(t, in.Sources.Yelp)
	assert.True(t, in.DeltaMode)
	assert.Equal(t, "anthropic", in.AI.Provider)

	yamlPath := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
seedType: customUrls
locations: [Austin, TX]
customUrls:
  - https://joespizza.com
output:
  format: xlsx
`), 0o644))
	in, err = loadRunInput(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, model.SeedCustomURLs, in.SeedType)
	assert.Equal(t, []string{"https://joespizza.com"}, in.CustomURLs)
	assert.Equal(t, "xlsx", in.Output.Format)
}

func TestLoadRunInput_Errors(t *testing.T) {
	_, err := loadRunInput(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read input")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = loadRunInput(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse input")
}

func TestLoadLeads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"business": {"name": "Joe's Pizza"}}]`), 0o644))

	leads, err := loadLeads(path)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Joe's Pizza", leads[0].Business.Name)
}

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.Store.Driver = "memory"
	c.Discovery.Concurrency = 2
	c.Discovery.Region = "US"
	c.Enrichment.Concurrency = 2
	c.Outreach.Concurrency = 1
	c.Outreach.Provider = "openai"
	c.Export.Format = "csv"
	c.Export.Table = "leads"
	return c
}

func TestApplyOutputDefaults(t *testing.T) {
	c := testConfig()
	withConfig(t, c)

	out := applyOutputDefaults(model.OutputInput{})
	assert.Equal(t, "csv", out.Format)
	assert.Equal(t, "leads.csv", out.Path)

	c.Export.Path = "out/leads.csv"
	out = applyOutputDefaults(model.OutputInput{Format: "json", Path: "mine.json"})
	assert.Equal(t, "mine.json", out.Path)

	out = applyOutputDefaults(model.OutputInput{Format: export.FormatPostgres})
	assert.Empty(t, out.Path)
}

func TestApp_AdaptersNeedKeys(t *testing.T) {
	c := testConfig()
	a, err := newApp(context.Background(), c)
	require.NoError(t, err)
	defer a.Close()

	adapters := a.adapters()
	assert.NotContains(t, adapters, model.SourceGoogleMaps)
	assert.NotContains(t, adapters, model.SourceYelp)
	assert.Contains(t, adapters, model.SourceSERP)
	assert.Contains(t, adapters, model.SourceBBB)

	c.Google.Key = "g"
	c.Yelp.Key = "y"
	adapters = a.adapters()
	assert.Contains(t, adapters, model.SourceGoogleMaps)
	assert.Contains(t, adapters, model.SourceYelp)
}

func TestApp_Provider(t *testing.T) {
	c := testConfig()
	a := &app{cfg: c}

	p, err := a.provider(model.AIInput{})
	require.NoError(t, err)
	assert.Nil(t, p, "no key means no drafting")

	c.OpenAI.Key = "o-key"
	p, err = a.provider(model.AIInput{})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "openai", p.Name())

	c.Anthropic.Key = "a-key"
	p, err = a.provider(model.AIInput{Provider: "claude"})
	require.NoError(t, err)
	require.NotNil(t, p)
	_, ok := p.(*outreach.AnthropicProvider)
	assert.True(t, ok)

	_, err = a.provider(model.AIInput{Provider: "bard"})
	assert.Error(t, err)
}

func TestApp_FileSink(t *testing.T) {
	c := testConfig()
	a := &app{cfg: c}
	path := filepath.Join(t.TempDir(), "out.json")

	sink, err := a.sink(context.Background(), model.OutputInput{Format: export.FormatJSON, Path: path})
	require.NoError(t, err)
	require.NoError(t, sink.Write(context.Background(), export.NewRows([]model.Lead{{Business: model.Business{Name: "Joe's Pizza"}}})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Joe's Pizza")
}

func TestApp_PostgresSinkNeedsURL(t *testing.T) {
	a := &app{cfg: testConfig()}
	_, err := a.sink(context.Background(), model.OutputInput{Format: export.FormatPostgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestApp_PipelineRunsProcess(t *testing.T) {
	a, err := newApp(context.Background(), testConfig())
	require.NoError(t, err)
	defer a.Close()

	p, err := a.pipeline()
	require.NoError(t, err)

	leads := []model.Lead{
		{Business: model.Business{Name: "Joe's Pizza", PhoneE164: "+15125550123"}},
		{Business: model.Business{Name: "Joe's Pizza", PhoneE164: "+15125550123"}},
	}
	res, err := p.Process(context.Background(), leads, pipeline.ProcessOptions{Delta: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Emitted)

	res, err = p.Process(context.Background(), leads, pipeline.ProcessOptions{Delta: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Emitted, "state persisted in the app store")
}
