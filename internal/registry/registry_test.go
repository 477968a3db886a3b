package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/chainrun/internal/chaindef"
	"github.com/specialistvlad/chainrun/internal/stage"
	"github.com/specialistvlad/chainrun/internal/testutil"
)

type fakeModule struct{ ids []string }

func (m fakeModule) Register(r *Registry) {
	for _, id := range m.ids {
		id := id
		r.RegisterStage(id, func() stage.Stage {
			return testutil.NewFakeStage(testutil.StageSpec{StageID: id})
		})
	}
}

func TestResolve_FreshInstances(t *testing.T) {
	r := New(fakeModule{ids: []string{"scale", "clip"}})

	first, err := r.Resolve("scale")
	require.NoError(t, err)
	second, err := r.Resolve("scale")
	require.NoError(t, err)

	assert.NotSame(t, first, second, "each resolution must build a new stage")
	assert.Equal(t, []string{"clip", "scale"}, r.IDs())
}

func TestResolve_Unknown(t *testing.T) {
	r := New()

	_, err := r.Resolve("nope")
	require.ErrorIs(t, err, ErrUnknownStage)
	assert.Contains(t, err.Error(), "nope")
}

func TestRegisterStage_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		New(fakeModule{ids: []string{"scale"}}, fakeModule{ids: []string{"scale"}})
	})
}

func TestValidate(t *testing.T) {
	r := New(fakeModule{ids: []string{"scale"}})

	ok := &chaindef.Definition{Name: "run_", Stages: []chaindef.Descriptor{{ID: "scale"}, {ID: "scale"}}}
	require.NoError(t, r.Validate(ok))

	bad := &chaindef.Definition{Name: "run_", Stages: []chaindef.Descriptor{{ID: "scale"}, {ID: "a"}, {ID: "b"}}}
	err := r.Validate(bad)
	require.ErrorIs(t, err, ErrUnknownStage)
	assert.Contains(t, err.Error(), "stage 1: no stage registered for id 'a'")
	assert.Contains(t, err.Error(), "stage 2: no stage registered for id 'b'")
}
