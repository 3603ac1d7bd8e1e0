package grading_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grading"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func passFail(id string) grading.Scale {
	return grading.Scale{
		ID:   id,
		Name: "Pass / Fail (50)",
		Bands: []grading.Band{
			{Label: "F", MinPercent: 0, MaxPercent: 50},
			{Label: "P", MinPercent: 50, MaxPercent: 100, GPAPoints: 4},
		},
	}
}

func TestNewService(t *testing.T) {
	repo := inmemdb.NewScaleRepository(inmemdb.NewDB())

	_, err := grading.NewService(repo, "")
	assert.Error(t, err)

	_, err = grading.NewService(repo, "lol")
	assert.Equal(t, grading.ErrUnknownDefault, errors.Cause(err))

	svc, err := grading.NewService(repo, "school", passFail("school"))
	require.NoError(t, err)
	assert.Equal(t, "school", svc.Default().ID)
	assert.True(t, svc.Default().Predefined)
	assert.Equal(t, "P", svc.Default().Bands[0].Label, "bands are normalized highest first")
}

func TestService_SaveScale(t *testing.T) {
	validate, _ := core.NewValidator()
	svc, err := grading.NewService(inmemdb.NewScaleRepository(inmemdb.NewDB()), grading.ScaleStandard, passFail("school"))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("built-in", func(t *testing.T) {
		for _, id := range []string{grading.ScaleStandard, "School"} {
			_, err := svc.SaveScale(ctx, passFail(id), validate)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, grading.ErrScaleReadOnly, verr.Err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		s := passFail("custom")
		s.Bands[1].MinPercent = 60
		_, err := svc.SaveScale(ctx, s, validate)
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr), "got %v", err)
		assert.Equal(t, `gap between bands "F" and "P"`, verr.Fields[0].Error)

		_, err = svc.Scale(ctx, "custom")
		assert.True(t, core.IsNotFound(err), "nothing is saved")
	})

	t.Run("saved", func(t *testing.T) {
		s := passFail(" Custom ")
		s.Predefined = true
		saved, err := svc.SaveScale(ctx, s, validate)
		require.NoError(t, err)
		assert.Equal(t, "custom", saved.ID)
		assert.False(t, saved.Predefined)

		got, err := svc.Scale(ctx, "CUSTOM")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("listed after the built-ins", func(t *testing.T) {
		scales, err := svc.Scales(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(scales))
		for _, s := range scales {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []string{
			grading.ScalePassFail, grading.ScalePercentage, grading.ScalePlusMinus, "school", grading.ScaleStandard,
			"custom",
		}, ids)
	})
}

func TestService_ClassScale(t *testing.T) {
	validate, _ := core.NewValidator()
	repo := inmemdb.NewScaleRepository(inmemdb.NewDB())
	svc, err := grading.NewService(repo, grading.ScaleStandard)
	require.NoError(t, err)
	ctx := context.Background()

	s, err := svc.ClassScale(ctx, "math-7a")
	require.NoError(t, err)
	assert.Equal(t, grading.ScaleStandard, s.ID)

	_, err = svc.SetClassScale(ctx, "math-7a", "lol")
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "scale_id", verr.Fields[0].Field)

	_, err = svc.SetClassScale(ctx, " ", grading.ScalePassFail)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "class", verr.Fields[0].Field)

	_, err = svc.SaveScale(ctx, passFail("custom"), validate)
	require.NoError(t, err)
	s, err = svc.SetClassScale(ctx, "math-7a", "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", s.ID)

	s, err = svc.ClassScale(ctx, "math-7a")
	require.NoError(t, err)
	assert.Equal(t, "custom", s.ID)
	assert.Equal(t, grading.Grade{Label: "P", GPAPoints: 4}, grading.Classify(50, s))

	// a selection pointing to a vanished scale falls back on the default
	require.NoError(t, repo.SetClassScaleID(ctx, "math-7b", "gone"))
	s, err = svc.ClassScale(ctx, "math-7b")
	require.NoError(t, err)
	assert.Equal(t, grading.ScaleStandard, s.ID)
}
