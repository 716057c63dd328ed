package domain

import (
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileJSONRoundTrip(t *testing.T) {
	in := Profile{
		ID:           snowflake.ID(101),
		Email:        "jan.wouters@vtk.be",
		PasswordHash: "never-serialized",
		Name:         "Jan Wouters",
		Post:         "Fakbar",
		AllowedPosts: PostList{"Fakbar", "Sport"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "never-serialized")

	var out Profile
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.AllowedPosts, out.AllowedPosts)
	assert.Empty(t, out.PasswordHash)
}
