package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-task-api/internal/logging"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/testutil"
	"golang.org/x/crypto/bcrypt"
)

func newTestSeeder(t *testing.T) *Seeder {
	t.Helper()
	s := New(testutil.NewDB(t), logging.Discard())
	s.cost = bcrypt.MinCost
	return s
}

func TestImport_DefaultFixtures(t *testing.T) {
	s := newTestSeeder(t)
	ctx := context.Background()

	fixtures, err := Parse(nil)
	require.NoError(t, err)

	summary, err := s.Import(ctx, fixtures)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 3, Projects: 2, Tasks: 4}, summary)

	var member models.User
	require.NoError(t, s.db.Preload("Projects").Where("email = ?", "member@example.com").First(&member).Error)
	assert.Len(t, member.Projects, 2)

	// importing again replaces instead of duplicating
	_, err = s.Import(ctx, fixtures)
	require.NoError(t, err)

	var users int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 3, users)
}

func TestImport_UnknownReferenceRollsBack(t *testing.T) {
	s := newTestSeeder(t)

	fixtures, err := Parse([]byte(`
users:
  - {name: Alice, email: alice@example.com, password: password123, role: Member}
projects:
  - {name: Apollo, description: Moon, creator: nobody@example.com}
`))
	require.NoError(t, err)

	_, err = s.Import(context.Background(), fixtures)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown user")

	var users int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestDestroy(t *testing.T) {
	s := newTestSeeder(t)
	ctx := context.Background()

	fixtures, err := Parse(nil)
	require.NoError(t, err)
	_, err = s.Import(ctx, fixtures)
	require.NoError(t, err)

	require.NoError(t, s.Destroy(ctx))

	for _, m := range []any{&models.User{}, &models.Project{}, &models.Task{}, &models.ProjectMember{}, &models.UserProject{}} {
		var n int64
		require.NoError(t, s.db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("users: [unterminated"))
	assert.Error(t, err)
}
