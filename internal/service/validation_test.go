package service

import (
	"context"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-catalog/internal/database/migrations"
)

var (
	createTableRe = regexp.MustCompile(`CREATE TABLE IF NOT EXISTS (\w+) \(`)
	varcharRe     = regexp.MustCompile(`(?m)^\s*(\w+)\s+VARCHAR\((\d+)\)`)
)

// columnSizes returns "table.column" -> VARCHAR length for every migration.
func columnSizes(t *testing.T) map[string]int {
	t.Helper()
	sizes := map[string]int{}
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, name := range files {
		body, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		ddl := string(body)
		locs := createTableRe.FindAllStringSubmatchIndex(ddl, -1)
		for i, loc := range locs {
			table := ddl[loc[2]:loc[3]]
			end := len(ddl)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			for _, m := range varcharRe.FindAllStringSubmatch(ddl[loc[1]:end], -1) {
				n, err := strconv.Atoi(m[2])
				require.NoError(t, err)
				sizes[table+"."+m[1]] = n
			}
		}
	}
	return sizes
}

func TestFieldLimitsMatchSchema(t *testing.T) {
	sizes := columnSizes(t)
	want := map[string]int{
		"users.username":        UsernameMax,
		"users.email":           EmailMax,
		"games.title":           TitleMax,
		"games.description":     DescriptionMax,
		"games.developer":       CompanyMax,
		"games.publisher":       CompanyMax,
		"tags.name":             TagNameMax,
		"profiles.display_name": DisplayNameMax,
		"profiles.bio":          BioMax,
		"profiles.avatar_url":   AvatarURLMax,
		"profiles.country":      CountryMax,
	}
	for col, limit := range want {
		got, ok := sizes[col]
		if assert.True(t, ok, "column %s not found", col) {
			assert.Equal(t, limit, got, col)
		}
	}
}

func TestCreateGame_DescriptionBounded(t *testing.T) {
	e := newEnv(t)
	root := e.admin(t)

	_, err := e.catalog.CreateGame(context.Background(), root, GameInput{
		Title:       "Doom",
		Description: strings.Repeat("x", DescriptionMax+1),
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "description", ve.Fields[0].Field)

	g, err := e.catalog.CreateGame(context.Background(), root, GameInput{
		Title:       "Doom",
		Description: strings.Repeat("é", DescriptionMax),
	})
	require.NoError(t, err)
	assert.Equal(t, "Doom", g.Title)
}

func TestProfileUpdate_CountryFullName(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, "alice")

	p, err := e.profile.Update(context.Background(), alice, alice.ID, ProfileInput{Country: "Germany"})
	require.NoError(t, err)
	assert.Equal(t, "Germany", p.Country)

	_, err = e.profile.Update(context.Background(), alice, alice.ID, ProfileInput{Country: strings.Repeat("a", CountryMax+1)})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "country", ve.Fields[0].Field)
}
