package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niagahub/niagabot/internal/models"
)

func salesSop() models.SalesSop {
	return models.SalesSop{Steps: []models.SopStep{
		{Name: "reach out", Description: "Sapa pelanggan", Order: 1},
		{Name: "konsultasi", Description: "Gali kebutuhan", Order: 2},
		{Name: "rekomendasi", Description: "Tawarkan produk", Order: 3},
		{Name: "harga", Description: "Diskusikan harga", Order: 4},
	}}
}

func TestDetectStepMostRecentWins(t *testing.T) {
	m := NewSopStateMachine()

	history := []models.Message{
		{Role: "user", Content: "halo, selamat siang"},
		{Role: "assistant", Content: "Halo! Ada yang bisa dibantu?"},
		{Role: "user", Content: "berapa harga paket premium?"},
	}

	step, ok := m.DetectStep(salesSop(), history)
	require.True(t, ok, "expected a detected step")
	assert.Equal(t, "harga", step)
}

func TestDetectStepComplaintKeywords(t *testing.T) {
	m := NewSopStateMachine()
	sop := models.SalesSop{Steps: []models.SopStep{
		{Name: "reach out", Order: 1},
		{Name: "keluhan", Order: 2},
	}}

	step, ok := m.DetectStep(sop, []models.Message{
		{Role: "user", Content: "saya ada masalah dengan pesanan kemarin"},
	})
	require.True(t, ok)
	assert.Equal(t, "keluhan", step)
}

func TestDetectStepNoMatchReturnsAbsent(t *testing.T) {
	m := NewSopStateMachine()

	step, ok := m.DetectStep(salesSop(), []models.Message{
		{Role: "user", Content: "lorem ipsum dolor"},
	})
	assert.False(t, ok, "expected no detection, got %q", step)
}

func TestDetectStepEmptyProcedure(t *testing.T) {
	m := NewSopStateMachine()

	_, ok := m.DetectStep(models.SalesSop{}, []models.Message{{Role: "user", Content: "halo"}})
	assert.False(t, ok, "empty procedure must never detect a step")
}

func TestDetectStepCustomTriggersOverrideDefaults(t *testing.T) {
	m := NewSopStateMachine()
	sop := models.SalesSop{Steps: []models.SopStep{
		{Name: "harga", Order: 1, Triggers: []string{"quotation"}},
	}}

	// default keyword no longer applies once triggers are set
	_, ok := m.DetectStep(sop, []models.Message{{Role: "user", Content: "berapa harga?"}})
	assert.False(t, ok, "default keyword should not match a step with custom triggers")

	step, ok := m.DetectStep(sop, []models.Message{{Role: "user", Content: "please send a quotation"}})
	require.True(t, ok)
	assert.Equal(t, "harga", step)
}

func TestDetectStepDeterministic(t *testing.T) {
	m := NewSopStateMachine()
	sop := salesSop()
	history := []models.Message{
		{Role: "user", Content: "halo, saya mau tanya harga"},
	}

	first, ok1 := m.DetectStep(sop, history)
	for i := 0; i < 10; i++ {
		got, ok := m.DetectStep(sop, history)
		require.Equal(t, first, got, "detection not deterministic")
		require.Equal(t, ok1, ok)
	}
}

func TestNextStepProgression(t *testing.T) {
	m := NewSopStateMachine()
	sop := salesSop()

	next, ok := m.NextStep(sop, "")
	require.True(t, ok, "absent current should yield first step")
	assert.Equal(t, "reach out", next)

	next, ok = m.NextStep(sop, "konsultasi")
	require.True(t, ok)
	assert.Equal(t, "rekomendasi", next)

	_, ok = m.NextStep(sop, "harga")
	assert.False(t, ok, "last step must yield absent next")

	_, ok = m.NextStep(sop, "tidak ada")
	assert.False(t, ok, "unknown step must yield absent next")

	_, ok = m.NextStep(models.SalesSop{}, "")
	assert.False(t, ok, "empty procedure must yield absent next")
}

func TestHintClosingOnLastStep(t *testing.T) {
	m := NewSopStateMachine()

	hint := m.Hint(salesSop(), "harga")
	require.NotEmpty(t, hint)
	assert.Contains(t, hint, "Langkah saat ini: harga.")
	assert.Contains(t, hint, "closing", "hint on last step must suggest closing")
}
