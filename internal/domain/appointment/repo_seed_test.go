package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/hms/internal/platform/seed"
)

func TestEmbeddedAppointmentSeed(t *testing.T) {
	s, err := NewSeedRepo(seed.FS())
	require.NoError(t, err)

	items, total, err := s.Search(context.Background(), map[string]string{}, 100, 0)
	require.NoError(t, err)
	require.Greater(t, total, 0)
	for _, a := range items {
		assert.NotEqual(t, uuid.Nil, a.PatientID)
		assert.NotEmpty(t, a.Status)
	}

	_, total, err = s.Search(context.Background(), map[string]string{"status": string(StatusPendingPayment)}, 100, 0)
	require.NoError(t, err)
	assert.Greater(t, total, 0, "fixtures include unpaid appointments")

	got, err := s.GetByID(context.Background(), items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, got.ID)
}
