package services

import (
	"fmt"
	"strings"

	"github.com/niagahub/niagabot/internal/models"
)

const promptHistoryWindow = 10

// PromptComposer renders the generation request so persona, SOP, and
// retrieved context are applied in a fixed section order. Pure function of
// its inputs.
type PromptComposer struct{}

func NewPromptComposer() *PromptComposer { return &PromptComposer{} }

func (p *PromptComposer) Build(history []models.Message, retrieved []string, settings models.TenantSettings, sopHint string) string {
	persona := settings.Persona

	var steps strings.Builder
	for _, step := range settings.Sop.Steps {
		fmt.Fprintf(&steps, "%d. %s\n", step.Order, step.Description)
	}
	stepBlock := strings.TrimRight(steps.String(), "\n")
	if stepBlock == "" {
		stepBlock = "- Tidak ada SOP khusus."
	}

	contextBlock := strings.Join(retrieved, "\n")
	if contextBlock == "" {
		contextBlock = "Tidak ada konteks tambahan."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Peran kamu: AI asisten %s yang berbicara dengan gaya: %s. Tone: %s. Bahasa utama: %s.\n",
		persona.Persona, persona.StylePrompt, persona.Tone, persona.Language)
	fmt.Fprintf(&b, "Ikuti SOP berikut (urutkan sesuai kebutuhan percakapan):\n%s\n\n", stepBlock)
	fmt.Fprintf(&b, "Panduan langkah saat ini: %s\n\n", sopHint)
	fmt.Fprintf(&b, "Gunakan konteks pengetahuan bisnis berikut jika relevan:\n%s\n\n", contextBlock)
	b.WriteString("Percakapan terbaru:\n")

	window := history
	if len(window) > promptHistoryWindow {
		window = window[len(window)-promptHistoryWindow:]
	}
	for _, msg := range window {
		media := ""
		if msg.MediaURL != "" {
			media = fmt.Sprintf(" [media: %s %s]", msg.MediaType, msg.MediaURL)
		}
		fmt.Fprintf(&b, "%s: %s%s\n", strings.ToUpper(msg.Role), msg.Content, media)
	}

	b.WriteString("\nTugas:\n" +
		"- Jawab secara ringkas, jelas, dan empatik.\n" +
		"- Jika jawaban panjang, pecah menjadi beberapa bubble pendek.\n" +
		"- Lakukan upsell hanya jika sesuai konteks dan sopan.\n" +
		"- Jika konteks tidak cukup, minta klarifikasi singkat.\n" +
		"- Hormati jadwal kerja jika disediakan.\n")

	return b.String()
}
