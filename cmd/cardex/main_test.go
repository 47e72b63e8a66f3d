package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardex/internal/cards"
	"cardex/internal/convert"
	"cardex/internal/detect"
	"cardex/internal/serialize"
	"cardex/internal/testsupport"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := filepath.Dir(cfg.Paths.LibraryDir)

	configPath := filepath.Join(base, "config.toml")
	body, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) writeCardFile(t *testing.T, name string) string {
	t.Helper()

	raw, err := serialize.Card(testsupport.NewCardV3(), cards.SpecV3)
	if err != nil {
		t.Fatalf("serialize fixture: %v", err)
	}
	path := filepath.Join(env.baseDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write card file: %v", err)
	}
	return path
}

func TestShowCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	cardPath := env.writeCardFile(t, "amanda.json")

	stdout, _, err := env.run(t, "show", "--json", cardPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}

	var summary cardSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, stdout)
	}
	if summary.Name != "Amanda" || summary.Spec != "v3" || summary.Source != "json" {
		t.Fatalf("summary: %+v", summary)
	}
	if summary.LorebookEntries != 2 {
		t.Fatalf("lorebook entries: got %d want 2", summary.LorebookEntries)
	}
}

func TestConvertCommandToCHARX(t *testing.T) {
	env := setupCLITestEnv(t)
	cardPath := env.writeCardFile(t, "amanda.json")
	outPath := filepath.Join(env.baseDir, "amanda.charx")

	stdout, _, err := env.run(t, "convert", cardPath, "--to", "charx", "-o", outPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(stdout, "Wrote "+outPath) {
		t.Fatalf("unexpected output: %s", stdout)
	}

	buf, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	result, err := convert.Import(buf)
	if err != nil {
		t.Fatalf("re-import output: %v", err)
	}
	if result.Container != detect.ContainerCHARX {
		t.Fatalf("container: got %q want charx", result.Container)
	}
	if result.Card.Name != "Amanda" {
		t.Fatalf("name: got %q", result.Card.Name)
	}
}

func TestConvertRefusesOverwriteWithoutForce(t *testing.T) {
	env := setupCLITestEnv(t)
	cardPath := env.writeCardFile(t, "amanda.json")
	outPath := filepath.Join(env.baseDir, "out.charx")
	if err := os.WriteFile(outPath, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	if _, _, err := env.run(t, "convert", cardPath, "--to", "charx", "-o", outPath); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if _, _, err := env.run(t, "convert", cardPath, "--to", "charx", "-o", outPath, "--force"); err != nil {
		t.Fatalf("convert --force: %v", err)
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	cardPath := env.writeCardFile(t, "amanda.json")
	if _, _, err := env.run(t, "convert", cardPath, "--to", "gif"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestImportListExportRemoveFlow(t *testing.T) {
	env := setupCLITestEnv(t)
	cardPath := env.writeCardFile(t, "amanda.json")

	stdout, _, err := env.run(t, "import", cardPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	fields := strings.Fields(strings.TrimSpace(strings.SplitN(stdout, "\n", 2)[0]))
	id := fields[len(fields)-1]
	if id == "" {
		t.Fatalf("no id in output: %s", stdout)
	}

	listOut, _, err := env.run(t, "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var views []recordView
	if err := json.Unmarshal([]byte(listOut), &views); err != nil {
		t.Fatalf("decode list: %v\n%s", err, listOut)
	}
	if len(views) != 1 || views[0].ID != id {
		t.Fatalf("list views: %+v", views)
	}
	if views[0].Name != "Amanda" || views[0].Spec != "v3" {
		t.Fatalf("view fields: %+v", views[0])
	}

	exportPath := filepath.Join(env.baseDir, "exported.json")
	if _, _, err := env.run(t, "export", id, "--to", "json-v3", "-o", exportPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	exported, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	result, err := convert.Import(exported)
	if err != nil {
		t.Fatalf("re-import export: %v", err)
	}
	if result.Card.Name != "Amanda" {
		t.Fatalf("exported name: got %q", result.Card.Name)
	}

	if _, _, err := env.run(t, "rm", id); err != nil {
		t.Fatalf("rm: %v", err)
	}
	emptyOut, _, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list after rm: %v", err)
	}
	if !strings.Contains(emptyOut, "Library is empty") {
		t.Fatalf("expected empty library, got: %s", emptyOut)
	}
}

func TestExportMissingID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := env.run(t, "export", "no-such-id", "--to", "json-v3"); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestConfigInit(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "fresh", "config.toml")

	if _, _, err := env.run(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal without --overwrite")
	}
	if _, _, err := env.run(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(stdout, "# "+env.configPath) {
		t.Fatalf("expected config path header, got: %s", stdout)
	}
	if !strings.Contains(stdout, "[paths]") || !strings.Contains(stdout, "[fetch]") {
		t.Fatalf("expected TOML sections in output, got: %s", stdout)
	}
}

func TestShowWarningsGoToStderr(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "odd.json")
	payload := []byte(`{"spec": "chara_card_v9", "data": {"name": "Odd"}}`)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write card: %v", err)
	}

	stdout, stderr, err := env.run(t, "show", path)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(stdout, "spec_unrecognized") {
		t.Fatal("warnings must not pollute stdout")
	}
	if !strings.Contains(stderr, "spec_unrecognized") {
		t.Fatalf("warning missing from stderr: %s", stderr)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		format convert.Format
		want   string
	}{
		{"cards/amanda.png", convert.FormatJSONV3, "amanda.json"},
		{"amanda.charx", convert.FormatPNGV2, "amanda.png"},
		{"amanda.json", convert.FormatCHARX, "amanda.charx"},
		{"amanda.json", convert.FormatVoxta, "amanda.voxpkg"},
	}
	for _, tt := range tests {
		if got := defaultOutputPath(tt.input, tt.format); got != tt.want {
			t.Fatalf("defaultOutputPath(%q, %s): got %q want %q", tt.input, tt.format, got, tt.want)
		}
	}
}
