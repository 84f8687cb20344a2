package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brensch/snekperft/game"
	"github.com/stretchr/testify/require"
)

const sampleRequest = `{
  "game": {"id": "g1", "ruleset": {"name": "standard", "version": "v1"}, "map": "standard", "timeout": 500, "source": "league"},
  "turn": 12,
  "board": {
    "height": 11,
    "width": 11,
    "food": [{"x": 5, "y": 5}, {"x": 0, "y": 10}],
    "hazards": [{"x": 3, "y": 3}],
    "snakes": [
      {"id": "me", "name": "a", "health": 54, "body": [{"x": 1, "y": 1}, {"x": 1, "y": 2}, {"x": 1, "y": 3}], "head": {"x": 1, "y": 1}, "length": 3},
      {"id": "them", "name": "b", "health": 98, "body": [{"x": 8, "y": 8}, {"x": 8, "y": 7}, {"x": 8, "y": 7}], "head": {"x": 8, "y": 8}, "length": 3}
    ]
  },
  "you": {"id": "me", "name": "a", "health": 54, "body": [{"x": 1, "y": 1}, {"x": 1, "y": 2}, {"x": 1, "y": 3}], "head": {"x": 1, "y": 1}, "length": 3}
}`

func TestDecode(t *testing.T) {
	req, err := Decode(strings.NewReader(sampleRequest))
	require.NoError(t, err)

	require.Equal(t, int32(12), req.Turn)
	require.Equal(t, "me", req.YouID)
	require.Equal(t, int32(11), req.Board.Width)
	require.Equal(t, []game.Point{{X: 5, Y: 5}, {X: 0, Y: 10}}, req.Board.Food)
	require.Len(t, req.Board.Snakes, 2)

	them := req.Board.Snakes[1]
	require.Equal(t, "them", them.ID)
	require.Equal(t, int32(98), them.Health)
	require.Equal(t, []game.Point{{X: 8, Y: 8}, {X: 8, Y: 7}, {X: 8, Y: 7}}, them.Body)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"bad json":        `{"turn": `,
		"length mismatch": strings.Replace(sampleRequest, `"head": {"x": 8, "y": 8}, "length": 3`, `"head": {"x": 8, "y": 8}, "length": 4`, 1),
		"head mismatch":   strings.Replace(sampleRequest, `"head": {"x": 8, "y": 8}`, `"head": {"x": 2, "y": 8}`, 1),
		"no you":          strings.Replace(sampleRequest, `"you": {"id": "me"`, `"you": {"id": ""`, 1),
		"zero width":      strings.Replace(sampleRequest, `"width": 11`, `"width": 0`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(body))
			require.Error(t, err)
		})
	}
}

func TestDecode_InvariantViolations(t *testing.T) {
	body := strings.Replace(sampleRequest, `"health": 98`, `"health": 120`, 1)
	_, err := Decode(strings.NewReader(body))
	require.ErrorIs(t, err, game.ErrInvariantViolation)
}

func TestLoadDir_SortedByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sampleRequest), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	got, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []string{"a", "b", "c"} {
		require.Equal(t, want, got[i].Name)
		require.Equal(t, "me", got[i].Request.YouID)
	}
}

func TestLoad_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "broken.json")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
