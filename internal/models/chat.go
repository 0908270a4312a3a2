package models

// Message is one conversation turn as seen by the orchestration pipeline.
type Message struct {
	Role      string `json:"role" binding:"required"` // user|assistant|system
	Content   string `json:"content"`
	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"` // image|audio|video|pdf|sticker
}

type ChatRequest struct {
	TenantID  string            `json:"tenant_id"`
	UserID    string            `json:"user_id" binding:"required"`
	ContactID string            `json:"contact_id,omitempty"`
	Locale    string            `json:"locale,omitempty"`
	Channel   string            `json:"channel,omitempty"`
	Messages  []Message         `json:"messages" binding:"required"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Bubble is one display unit of a segmented reply. DelayMS paces staged
// rendering; the first bubble always carries zero delay.
type Bubble struct {
	Text    string `json:"text"`
	DelayMS int    `json:"delay_ms"`
}

type ChatResponse struct {
	Bubbles          []Bubble          `json:"bubbles"`
	FullText         string            `json:"full_text"`
	Metadata         map[string]string `json:"metadata"`
	RetrievedContext []string          `json:"retrieved_context"`
}
