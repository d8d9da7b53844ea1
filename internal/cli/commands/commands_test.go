package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/portion/internal/cli/config"
	"github.com/leapstack-labs/portion/internal/cli/testutil"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/leapstack-labs/portion/pkg/parser"
	"github.com/leapstack-labs/portion/pkg/ratio"
	"github.com/leapstack-labs/portion/pkg/unit"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reportJSON mirrors the parse report without its measure interfaces.
type reportJSON struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id"`
	Tokens     []struct {
		Raw  string `json:"raw"`
		Best string `json:"best"`
	} `json:"tokens"`
	Diagnostics []struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	} `json:"diagnostics"`
	Totals []struct {
		Text string `json:"text"`
	} `json:"totals"`
}

type historyJSON struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Tokens       int    `json:"tokens"`
	Measurements []struct {
		Raw  string `json:"raw"`
		Best string `json:"best"`
	} `json:"measurements"`
}

// setupCommandEnv isolates a command run: a fresh working directory, a state
// database inside it and the given output mode. configYAML, when set, is
// written as portion.yaml.
func setupCommandEnv(t *testing.T, mode, configYAML string) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "portion.yaml"), []byte(configYAML), 0o600))
	}

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Setenv("PORTION_OUTPUT", mode)
	t.Setenv("PORTION_STATE_PATH", filepath.Join(dir, "state.db"))
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return dir
}

// runCommand executes cmd with args and stdin, returning standard output.
func runCommand(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestParseCommandFiles(t *testing.T) {
	recipes := testutil.SetupTestRecipes(t)
	setupCommandEnv(t, "json", "")

	out, _, err := runCommand(t, NewParseCommand(), "",
		filepath.Join(recipes, "pancakes.txt"),
		filepath.Join(recipes, "broken.txt"),
		filepath.Join(recipes, "notes.md"))
	require.NoError(t, err)

	var reports []reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)

	pancakes := reports[0]
	assert.Equal(t, filepath.Join(recipes, "pancakes.txt"), pancakes.Source)
	require.NotEmpty(t, pancakes.Tokens)
	assert.Equal(t, "1 ½ cups", pancakes.Tokens[0].Raw)
	assert.Empty(t, pancakes.Diagnostics)
	assert.NotEmpty(t, pancakes.Totals)

	broken := reports[1]
	require.Len(t, broken.Diagnostics, 1)
	assert.Contains(t, broken.Diagnostics[0].Error, "infinite")

	notes := reports[2]
	assert.Empty(t, notes.Tokens)
	assert.Empty(t, notes.Diagnostics)
}

func TestParseCommandStdin(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		args     []string
		contains []string
	}{
		{
			name:     "markdown table",
			mode:     "markdown",
			contains: []string{"# stdin (2 measurements)", "| 48 tsp | 1 C | volume |", "## Totals"},
		},
		{
			name:     "text table",
			mode:     "text",
			contains: []string{"stdin (2 measurements)", "48 tsp", "1 1/2 hr"},
		},
		{
			name:     "markdown highlight",
			mode:     "markdown",
			args:     []string{"--highlight"},
			contains: []string{"## Text", "Mix **48 tsp** sugar, rest **90 min**"},
		},
		{
			name:     "dash reads stdin",
			mode:     "markdown",
			args:     []string{"-"},
			contains: []string{"# stdin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCommandEnv(t, tt.mode, "")

			out, _, err := runCommand(t, NewParseCommand(), "Mix 48 tsp sugar, rest 90 min.", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			testutil.AssertNoANSI(t, out)
			if tt.mode == "markdown" {
				testutil.AssertValidMarkdown(t, out)
			}
		})
	}
}

func TestParseCommandMissingFile(t *testing.T) {
	setupCommandEnv(t, "json", "")

	_, _, err := runCommand(t, NewParseCommand(), "", "does-not-exist.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.txt")
}

func TestParseCommandWatchNeedsDirectory(t *testing.T) {
	setupCommandEnv(t, "json", "")

	_, _, err := runCommand(t, NewParseCommand(), "", "--watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one directory")

	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("1 cup"), 0o600))
	_, _, err = runCommand(t, NewParseCommand(), "", "--watch", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestParseSaveAndHistory(t *testing.T) {
	setupCommandEnv(t, "json", "")

	out, _, err := runCommand(t, NewParseCommand(), "1 cup water and 90 min", "--save")
	require.NoError(t, err)

	var reports []reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	id := reports[0].DocumentID
	require.NotEmpty(t, id)

	out, _, err = runCommand(t, NewHistoryCommand(), "")
	require.NoError(t, err)
	var listed []historyJSON
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)
	assert.Equal(t, "stdin", listed[0].Source)
	assert.Equal(t, 2, listed[0].Tokens)

	out, _, err = runCommand(t, NewHistoryCommand(), "", "show", id)
	require.NoError(t, err)
	var shown historyJSON
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Len(t, shown.Measurements, 2)
	assert.Equal(t, "1 cup", shown.Measurements[0].Raw)
	assert.Equal(t, "1 1/2 hr", shown.Measurements[1].Best)

	out, _, err = runCommand(t, NewHistoryCommand(), "", "rm", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"deleted": "`+id+`"`)

	_, _, err = runCommand(t, NewHistoryCommand(), "", "show", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHistoryCommandEmpty(t *testing.T) {
	setupCommandEnv(t, "markdown", "")

	out, _, err := runCommand(t, NewHistoryCommand(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "# Saved scans (0)")
	assert.Contains(t, out, "Nothing saved yet")
}

func TestConvertCommand(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		config  string
		args    []string
		want    string
		wantErr string
	}{
		{
			name: "cups to tablespoons",
			mode: "text",
			args: []string{"1/2", "cup", "--to", "tbsp"},
			want: "1/2 cup = 8 tbsp\n",
		},
		{
			name:   "described style",
			mode:   "text",
			config: "style: described\n",
			args:   []string{"90 min", "--to", "hours"},
			want:   "90 min = 1 1/2 hours\n",
		},
		{
			name: "json",
			mode: "json",
			args: []string{"1 cup", "--to", "tsp"},
			want: `"text": "48 tsp"`,
		},
		{
			name:    "unknown unit",
			mode:    "text",
			args:    []string{"1 cup", "--to", "parsec"},
			wantErr: "parsec",
		},
		{
			name:    "dimension mismatch",
			mode:    "text",
			args:    []string{"1 cup", "--to", "min"},
			wantErr: "dimension",
		},
		{
			name:    "missing target",
			mode:    "text",
			args:    []string{"1 cup"},
			wantErr: "to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCommandEnv(t, tt.mode, tt.config)

			out, _, err := runCommand(t, NewConvertCommand(), "", tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestBestCommand(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		setupCommandEnv(t, "markdown", "")
		out, _, err := runCommand(t, NewBestCommand(), "", "48", "tsp")
		require.NoError(t, err)
		assert.Contains(t, out, "# 48 tsp")
		assert.Contains(t, out, "- **Best:** 1 C")
		assert.Contains(t, out, "- **Candidates:**")
	})

	t.Run("text", func(t *testing.T) {
		setupCommandEnv(t, "text", "")
		out, _, err := runCommand(t, NewBestCommand(), "", "48 tsp")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "48 tsp = 1 C\n"))
	})

	t.Run("unitless", func(t *testing.T) {
		setupCommandEnv(t, "json", "")
		out, _, err := runCommand(t, NewBestCommand(), "", "3 cloves")
		require.NoError(t, err)
		var got struct {
			Best       string   `json:"best"`
			Candidates []string `json:"candidates"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "3 cloves", got.Best)
		assert.Empty(t, got.Candidates)
	})

	t.Run("invalid", func(t *testing.T) {
		setupCommandEnv(t, "text", "")
		_, _, err := runCommand(t, NewBestCommand(), "", "cup")
		assert.Error(t, err)
	})
}

func TestScaleCommand(t *testing.T) {
	const recipe = "1 cup milk, 8 tsp sugar, 3 eggs, bake at 350°F for 10 minutes"

	t.Run("text", func(t *testing.T) {
		setupCommandEnv(t, "text", "")
		out, _, err := runCommand(t, NewScaleCommand(), recipe, "--by", "2")
		require.NoError(t, err)
		assert.Equal(t, "2 C milk, 1/3 C sugar, 6 eggs, bake at 350°F for 1/3 hr", out)
	})

	t.Run("json from file", func(t *testing.T) {
		setupCommandEnv(t, "json", "")
		path := filepath.Join(t.TempDir(), "recipe.txt")
		require.NoError(t, os.WriteFile(path, []byte(recipe), 0o600))

		out, _, err := runCommand(t, NewScaleCommand(), "", path, "--by", "0.5")
		require.NoError(t, err)
		var got struct {
			Source string `json:"source"`
			Factor string `json:"factor"`
			Text   string `json:"text"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, path, got.Source)
		assert.Equal(t, "1/2", got.Factor)
		assert.Contains(t, got.Text, "1/2 C milk")
	})

	t.Run("bad factor", func(t *testing.T) {
		setupCommandEnv(t, "text", "")
		_, _, err := runCommand(t, NewScaleCommand(), recipe, "--by", "lots")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid factor")
	})
}

func TestUnitsCommand(t *testing.T) {
	const customUnits = `
units:
  - name: stick
    plural: sticks
    multiple: 2304
    dimension: volume
`

	t.Run("all units markdown", func(t *testing.T) {
		setupCommandEnv(t, "markdown", "")
		out, _, err := runCommand(t, NewUnitsCommand(), "")
		require.NoError(t, err)
		assert.Contains(t, out, "# Units (")
		assert.Contains(t, out, "| cup |")
		assert.Contains(t, out, "| minute |")
		testutil.AssertValidMarkdown(t, out)
	})

	t.Run("custom unit filtered", func(t *testing.T) {
		setupCommandEnv(t, "json", customUnits)
		out, _, err := runCommand(t, NewUnitsCommand(), "", "volume")
		require.NoError(t, err)

		var units []struct {
			Name      string `json:"name"`
			Dimension string `json:"dimension"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &units))
		require.NotEmpty(t, units)
		var names []string
		for _, u := range units {
			assert.Equal(t, "volume", u.Dimension)
			names = append(names, u.Name)
		}
		assert.Contains(t, names, "stick")
		assert.NotContains(t, names, "minute")
	})

	t.Run("unknown dimension", func(t *testing.T) {
		setupCommandEnv(t, "text", "")
		_, _, err := runCommand(t, NewUnitsCommand(), "", "length")
		assert.Error(t, err)
	})
}

func TestREPLSession(t *testing.T) {
	newSession := func() (*replSession, *testutil.TestRenderer) {
		tr := testutil.NewTestRendererText()
		return newREPLSession(parser.New(), tr.Renderer, unit.Abbreviated), tr
	}

	tests := []struct {
		name    string
		lines   []string
		wantOut []string
		wantErr string
	}{
		{
			name:    "scan line",
			lines:   []string{"48 tsp and 90 min"},
			wantOut: []string{"  48 tsp -> 1 C", "  90 min -> 1 1/2 hr"},
		},
		{
			name:    "nothing found",
			lines:   []string{"hello"},
			wantOut: []string{"no quantities found"},
		},
		{
			name:    "scaled",
			lines:   []string{".scale 2", "1 cup milk"},
			wantOut: []string{"scaling by 2", "2 C milk"},
		},
		{
			name:    "described style",
			lines:   []string{".style described", "90 min"},
			wantOut: []string{"style described", "1 1/2 hours"},
		},
		{
			name:    "convert",
			lines:   []string{".convert 1/2 cup to tbsp"},
			wantOut: []string{"1/2 cup = 8 tbsp"},
		},
		{
			name:    "best",
			lines:   []string{".best 48 tsp"},
			wantOut: []string{"48 tsp = 1 C"},
		},
		{
			name:    "units",
			lines:   []string{".units time"},
			wantOut: []string{"minute"},
		},
		{
			name:    "convert usage",
			lines:   []string{".convert 1 cup"},
			wantErr: "usage: .convert",
		},
		{
			name:    "bad factor",
			lines:   []string{".scale x"},
			wantErr: "invalid factor",
		},
		{
			name:    "unknown command",
			lines:   []string{".frobnicate"},
			wantErr: "unknown command .frobnicate",
		},
		{
			name:    "diagnostic",
			lines:   []string{"1/0 cup"},
			wantErr: "infinite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr := newSession()
			for _, line := range tt.lines {
				assert.False(t, s.eval(line))
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, tr.Output(), want)
			}
			if tt.wantErr != "" {
				assert.Contains(t, tr.ErrorOutput(), tt.wantErr)
			}
		})
	}

	s, _ := newSession()
	assert.True(t, s.eval(".quit"))
	assert.True(t, s.eval(".exit"))
	assert.False(t, s.eval("   "))
}

func TestBrowseModel(t *testing.T) {
	doc := document.Parse("1 cup milk, 1/0 tsp salt, bake at 350°F for 10 minutes")
	m := newBrowseModel("recipe.txt", doc, unit.Abbreviated)

	rows := m.table.Rows()
	require.Len(t, rows, len(doc.Tokens))
	assert.Equal(t, "1 cup", rows[0][0])
	assert.Equal(t, "1 C", rows[0][1])

	press := func(m browseModel, key string) browseModel {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		return next.(browseModel)
	}

	m = press(m, "+")
	assert.True(t, m.factor.Equal(ratio.Int(2)))
	assert.Equal(t, "2 C", m.table.Rows()[0][1])
	for _, row := range m.table.Rows() {
		if row[2] == unit.Temperature.String() {
			assert.Equal(t, row[0], row[1], "temperatures are not scaled")
		}
	}

	m = press(m, "s")
	assert.Equal(t, unit.Described, m.style)
	assert.Equal(t, "2 cups", m.table.Rows()[0][1])

	m = press(m, "-")
	m = press(m, "-")
	assert.True(t, m.factor.Equal(ratio.New(1, 2)))

	m = press(m, "r")
	assert.True(t, m.factor.Equal(ratio.One))

	view := m.View()
	assert.Contains(t, view, "recipe.txt")
	assert.Contains(t, view, "1 invalid skipped")
	assert.Contains(t, view, "q quit")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		use  string
		flag string
	}{
		{NewParseCommand(), "parse", "save"},
		{NewConvertCommand(), "convert", "to"},
		{NewBestCommand(), "best", ""},
		{NewScaleCommand(), "scale", "by"},
		{NewUnitsCommand(), "units", ""},
		{NewHistoryCommand(), "history", "limit"},
		{NewREPLCommand(), "repl", ""},
		{NewBrowseCommand(), "browse", ""},
		{NewServeCommand(), "serve", "addr"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.cmd.Use, tt.use))
			assert.NotEmpty(t, tt.cmd.Short)
			assert.NotEmpty(t, tt.cmd.Long)
			if tt.flag != "" {
				assert.NotNil(t, tt.cmd.Flags().Lookup(tt.flag), "flag %s", tt.flag)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 scan", plural(1, "scan"))
	assert.Equal(t, "0 scans", plural(0, "scan"))
	assert.Equal(t, "3 measurements", plural(3, "measurement"))
}
