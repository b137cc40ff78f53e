package socialgraph

import (
	"os"
	"testing"

	"github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func TestDBGraph(t *testing.T) {
	db, _ := utils.CreateTempDB(t)
	graph := NewDBGraph(db)

	alice := utils.TestCreateUser(t, db, "alice")
	bob := utils.TestCreateUser(t, db, "bob")
	carol := utils.TestCreateUser(t, db, "carol")

	// bob and carol follow alice, bob also follows carol.
	utils.TestCreateFollow(t, db, alice.Id, bob.Id)
	utils.TestCreateFollow(t, db, alice.Id, carol.Id)
	utils.TestCreateFollow(t, db, carol.Id, bob.Id)

	follows, err := graph.IsFollower(alice.Id, bob.Id)
	require.NoError(t, err)
	require.True(t, follows)

	// Following is directional.
	follows, err = graph.IsFollower(bob.Id, alice.Id)
	require.NoError(t, err)
	require.False(t, follows)

	friends, err := graph.FriendIds(bob.Id)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{alice.Id, carol.Id}, friends)

	followers, err := graph.FollowerIds(alice.Id)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{bob.Id, carol.Id}, followers)

	followers, err = graph.FollowerIds(bob.Id)
	require.NoError(t, err)
	require.Empty(t, followers)
}
