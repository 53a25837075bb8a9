package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	body := "database:\n" +
		"  path: " + filepath.Join(dir, "portal.db") + "\n" +
		"export:\n" +
		"  output_dir: " + filepath.Join(dir, "exports") + "\n" +
		"logger:\n" +
		"  level: error\n" +
		"  output_path: stderr\n"

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewRootCommand(NewApp())
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestExitError(t *testing.T) {
	err := NewExitError(3)
	assert.Equal(t, "exit status 3", err.Error())

	code, ok := IsExitError(err)
	assert.True(t, ok)
	assert.Equal(t, 3, code)

	_, ok = IsExitError(assert.AnError)
	assert.False(t, ok)
}

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    map[string]string
		wantErr bool
	}{
		{name: "none", raw: nil, want: nil},
		{name: "pairs", raw: []string{"reference_convention=CV-1", "montant_redevance=1500"},
			want: map[string]string{"reference_convention": "CV-1", "montant_redevance": "1500"}},
		{name: "empty value", raw: []string{"note="}, want: map[string]string{"note": ""}},
		{name: "value with equals", raw: []string{"expr=a=b"}, want: map[string]string{"expr": "a=b"}},
		{name: "missing separator", raw: []string{"oops"}, wantErr: true},
		{name: "missing key", raw: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFields(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "status", "booking", "en_etude")
	require.NoError(t, err)
	assert.Contains(t, out, "[En étude]")

	out, err = run(t, cfg, "status", "booking", "code_inconnu")
	require.NoError(t, err)
	assert.Contains(t, out, "code_inconnu")

	out, err = run(t, cfg, "status", "booking")
	require.NoError(t, err)
	assert.Contains(t, out, "non_demarre")
	assert.Contains(t, out, "[Clôturée]")

	_, err = run(t, cfg, "status", "billing", "x")
	assert.Error(t, err)
}

func TestStepsCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "steps", "booking")
	require.NoError(t, err)
	assert.Contains(t, out, "Réception de la demande")
	assert.Contains(t, out, "Contractualisation")
	assert.NotContains(t, out, "Archivé sans suite")
}

func TestWorkflowLifecycle(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, cfg, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "001_workflow_schema\tpending")

	out, err = run(t, cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 001_workflow_schema")
	assert.Contains(t, out, "up to date")

	out, err = run(t, cfg, "migrate", "--status")
	require.NoError(t, err)
	assert.NotContains(t, out, "pending")

	out, err = run(t, cfg, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 4 workflow catalogs")

	out, err = run(t, cfg, "view", "booking", "b-42")
	require.NoError(t, err)
	assert.Contains(t, out, "Workflow non démarré.")
	assert.Contains(t, out, "demarrer")

	out, err = run(t, cfg, "submit", "booking", "b-42", "demarrer", "--actor", "agent@bnrm.ma")
	require.NoError(t, err)
	assert.Contains(t, out, "Passage à l'étape : Réception de la demande")
	assert.Contains(t, out, "[En cours]")

	out, err = run(t, cfg, "submit", "booking", "b-42", "refuser", "--actor", "agent@bnrm.ma")
	code, ok := IsExitError(err)
	require.True(t, ok, "expected exit error, got %v", err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "un commentaire est obligatoire pour cette décision")

	out, err = run(t, cfg, "submit", "booking", "b-42", "valider", "--actor", "agent@bnrm.ma", "--comment", "dossier complet")
	require.NoError(t, err)
	assert.Contains(t, out, "Passage à l'étape : Étude technique")

	out, err = run(t, cfg, "view", "booking", "b-42", "--json")
	require.NoError(t, err)
	var snap struct {
		Status  string `json:"status"`
		History []struct {
			Actor string `json:"actor"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "en_etude", snap.Status)
	assert.Len(t, snap.History, 2)

	target := filepath.Join(t.TempDir(), "b-42.xlsx")
	out, err = run(t, cfg, "export", "booking", "b-42", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, target)

	f, err := excelize.OpenFile(target)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Historique")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(rows), 4)

	_, err = run(t, cfg, "export", "booking", "b-42", "-o", target)
	assert.ErrorContains(t, err, "already exists")

	out, err = run(t, cfg, "export", "booking", "b-42", "-o", target, "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "History written to")

	out, err = run(t, cfg, "export", "booking", "b-42")
	require.NoError(t, err)
	assert.Contains(t, out, "History saved to")
}

func TestSubmitCommand_InvalidField(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "submit", "booking", "b-1", "demarrer", "--field", "oops")
	assert.ErrorContains(t, err, "invalid field")
}

func TestSubmitCommand_UnknownKind(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "submit", "billing", "b-1", "demarrer")
	assert.Error(t, err)
}

func TestSubmitCommand_InvalidActor(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, cfg, "submit", "booking", "b-1", "demarrer", "--actor", "two words")
	assert.ErrorContains(t, err, "invalid actor")
}
