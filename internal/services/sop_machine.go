package services

import (
	"strings"

	"github.com/niagahub/niagabot/internal/models"
)

// defaultStepKeywords maps step names to trigger phrases for the built-in
// sales flow. Steps named outside this table never match by keyword unless
// the tenant configures explicit triggers on the step.
var defaultStepKeywords = map[string][]string{
	"reach out":   {"halo", "hai", "selamat"},
	"reach-out":   {"halo", "hai", "selamat"},
	"keluhan":     {"keluhan", "masalah", "complain", "problem"},
	"complaint":   {"keluhan", "masalah", "complain", "problem"},
	"konsultasi":  {"konsultasi", "tanya", "butuh saran"},
	"consult":     {"konsultasi", "tanya", "butuh saran"},
	"rekomendasi": {"rekomendasi", "produk yang cocok", "cocok"},
	"recommend":   {"rekomendasi", "produk yang cocok", "cocok"},
	"harga":       {"harga", "biaya", "fee"},
	"price":       {"harga", "biaya", "fee"},
}

// SopStateMachine classifies conversational progress against a tenant's
// sales procedure. It is stateless; persistence lives in SopStateService.
type SopStateMachine struct{}

func NewSopStateMachine() *SopStateMachine { return &SopStateMachine{} }

func stepKeywords(step models.SopStep) []string {
	if len(step.Triggers) > 0 {
		return step.Triggers
	}
	return defaultStepKeywords[strings.ToLower(step.Name)]
}

// DetectStep scans the history most-recent-first and returns the first step
// whose keyword set matches a message. Steps are tested in definition order,
// so ties within one message resolve to the earlier step.
func (m *SopStateMachine) DetectStep(sop models.SalesSop, history []models.Message) (string, bool) {
	if len(sop.Steps) == 0 {
		return "", false
	}
	for i := len(history) - 1; i >= 0; i-- {
		text := strings.ToLower(history[i].Content)
		if text == "" {
			continue
		}
		for _, step := range sop.Steps {
			for _, kw := range stepKeywords(step) {
				if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
					return step.Name, true
				}
			}
		}
	}
	return "", false
}

// NextStep returns the step after current in procedure order. Absent current
// yields the first step; the last step (or an unknown name) yields absent,
// signalling closing behavior.
func (m *SopStateMachine) NextStep(sop models.SalesSop, current string) (string, bool) {
	if len(sop.Steps) == 0 {
		return "", false
	}
	if current == "" {
		return sop.Steps[0].Name, true
	}
	for i, step := range sop.Steps {
		if step.Name == current {
			if i+1 < len(sop.Steps) {
				return sop.Steps[i+1].Name, true
			}
			return "", false
		}
	}
	return "", false
}

// Hint renders prompt guidance from the current position. It steers
// generation only and is never treated as authoritative state.
func (m *SopStateMachine) Hint(sop models.SalesSop, current string) string {
	var parts []string
	if current != "" {
		parts = append(parts, "Langkah saat ini: "+current+".")
	}
	if next, ok := m.NextStep(sop, current); ok {
		parts = append(parts, "Lanjutkan ke langkah berikut: "+next+".")
	} else {
		parts = append(parts, "Langkah akhir tercapai; lakukan closing/penutup.")
	}
	return strings.Join(parts, " ")
}
