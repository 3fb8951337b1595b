package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCatalog = `[
  {"id": "p1", "name": "Opener", "role": "Batsman", "battingSkill": 90, "bowlingSkill": 10, "fieldingSkill": 60, "nationality": "India", "basePrice": 2},
  {"id": "p2", "name": "Quick", "role": "Bowler", "battingSkill": 20, "bowlingSkill": 88, "fieldingSkill": 70, "nationality": "Australia", "basePrice": 1.5},
  {"id": "", "name": "Nameless", "role": "Batsman", "basePrice": 1},
  {"id": "p3", "name": "Keeper", "role": "Wicketkeeper", "battingSkill": 84, "bowlingSkill": 5, "fieldingSkill": 76, "basePrice": 0.75}
]`

func TestParse(t *testing.T) {
	players, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, players, 3, "records without an id are dropped")

	opener := players[0]
	require.Equal(t, "p1", opener.ID)
	require.False(t, opener.Overseas, "india is domestic")
	require.Equal(t, 80, opener.Rating) // .75*90 + .20*60 + .05*10

	quick := players[1]
	require.True(t, quick.Overseas)
	require.Equal(t, 81, quick.Rating) // .75*88 + .20*70 + .05*20

	keeper := players[2]
	require.False(t, keeper.Overseas, "missing nationality is domestic")
	require.Equal(t, 80, keeper.Rating) // .50*84 + .50*76
}

func TestParse_Corrupt(t *testing.T) {
	_, err := Parse([]byte(`{"not": "an array"}`))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))

	players, err := Load(path)
	require.NoError(t, err)
	require.Len(t, players, 3)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestIsOverseas(t *testing.T) {
	cases := map[string]bool{
		"":             false,
		"Domestic":     false,
		"  india  ":    false,
		"England":      true,
		"south africa": true,
	}
	for nat, want := range cases {
		require.Equal(t, want, isOverseas(nat), "nationality %q", nat)
	}
}
