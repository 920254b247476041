package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soomgil/counsel/internal/conversation/models"
	"github.com/soomgil/counsel/internal/infrastructure/kv"
)

func TestGetDefaultsWhenMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	svc := NewService(store)

	assert.Equal(t, models.Settings{}, svc.Get(ctx))
	assert.Equal(t, "", svc.Raw(ctx))

	require.NoError(t, store.Set(ctx, kv.SettingsKey, "not json"))
	assert.Equal(t, models.Settings{}, svc.Get(ctx))
}

func TestSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemory())

	want := models.Settings{
		Name:         "홍길동",
		Gender:       "남",
		BirthDate:    "1990-01-01",
		KTASCode:     "3",
		Notes:        "불면",
		HospitalName: "서울병원",
	}
	require.NoError(t, svc.Save(ctx, want))

	assert.Equal(t, want, svc.Get(ctx))
	assert.JSONEq(t, `{"name":"홍길동","gender":"남","birthDate":"1990-01-01","ktasCode":"3","notes":"불면","hospitalName":"서울병원"}`, svc.Raw(ctx))
}
