package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubGenerate swaps the model call for the duration of a test.
func stubGenerate(t *testing.T, fn func(ctx context.Context, prompt string) (string, error)) {
	t.Helper()
	old := generate
	generate = fn
	t.Cleanup(func() { generate = old })
}

func TestChatSession(t *testing.T) {
	t.Run("reset clears mode and history", func(t *testing.T) {
		s := chatSession{mode: modeApartment}
		s.remember("Student", "hi")
		s.remember("LeasyBot", "hello")

		s.reset()

		if s.mode != "" || len(s.history) != 0 {
			t.Fatalf("reset left state behind: %+v", s)
		}
	})

	t.Run("history is bounded", func(t *testing.T) {
		var s chatSession
		for i := 0; i < maxHistoryTurns*2; i++ {
			s.remember("Student", "msg")
		}
		if len(s.history) != maxHistoryTurns {
			t.Fatalf("expected history capped at %d, got %d", maxHistoryTurns, len(s.history))
		}
	})
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("select valid mode", func(t *testing.T) {
		c := &Client{}
		out := c.handleEvent(ctx, ClientEvent{Type: "select", Mode: modeRoommate})
		if len(out) != 1 || out[0].Type != "info" {
			t.Fatalf("unexpected response: %+v", out)
		}
		if c.session.mode != modeRoommate {
			t.Fatalf("mode not set: %q", c.session.mode)
		}
	})

	t.Run("select unknown mode", func(t *testing.T) {
		c := &Client{}
		out := c.handleEvent(ctx, ClientEvent{Type: "select", Mode: "laundry"})
		if len(out) != 1 || out[0].Type != "error" {
			t.Fatalf("expected an error, got %+v", out)
		}
	})

	t.Run("message before selecting a mode", func(t *testing.T) {
		c := &Client{}
		out := c.handleEvent(ctx, ClientEvent{Type: "message", Body: "hello"})
		if len(out) != 1 || out[0].Type != "error" {
			t.Fatalf("expected an error, got %+v", out)
		}
	})

	t.Run("message round trip updates history", func(t *testing.T) {
		stubGenerate(t, func(ctx context.Context, prompt string) (string, error) {
			if !strings.Contains(prompt, "Student: any pet friendly places?") {
				t.Errorf("prompt missing student message:\n%s", prompt)
			}
			return "Sure, here are a few options.", nil
		})

		c := &Client{session: chatSession{mode: modeApartment}}
		out := c.handleEvent(ctx, ClientEvent{Type: "message", Body: "any pet friendly places?"})

		if len(out) != 1 || out[0].Type != "message" {
			t.Fatalf("unexpected response: %+v", out)
		}
		if out[0].Data != "Sure, here are a few options." {
			t.Fatalf("unexpected reply: %v", out[0].Data)
		}
		if len(c.session.history) != 2 {
			t.Fatalf("expected 2 history turns, got %d", len(c.session.history))
		}
	})

	t.Run("generation failure is reported, not fatal", func(t *testing.T) {
		stubGenerate(t, func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("boom")
		})

		c := &Client{session: chatSession{mode: modeSupport}}
		out := c.handleEvent(ctx, ClientEvent{Type: "message", Body: "my login is broken"})

		if len(out) != 1 || out[0].Type != "error" {
			t.Fatalf("expected an error event, got %+v", out)
		}
		if len(c.session.history) != 0 {
			t.Fatal("failed exchange must not be recorded in history")
		}
	})

	t.Run("reset event", func(t *testing.T) {
		c := &Client{session: chatSession{mode: modeApartment, history: []chatTurn{{role: "Student", text: "hi"}}}}
		out := c.handleEvent(ctx, ClientEvent{Type: "reset"})
		if len(out) != 1 || out[0].Type != "info" {
			t.Fatalf("unexpected response: %+v", out)
		}
		if c.session.mode != "" || len(c.session.history) != 0 {
			t.Fatalf("session not cleared: %+v", c.session)
		}
	})
}

func TestBuildChatPrompt(t *testing.T) {
	listings := []Listing{{Cost: 950, Bedrooms: 2, PetsAllowed: true}}

	t.Run("apartment mode includes listing digest", func(t *testing.T) {
		s := chatSession{mode: modeApartment}
		prompt := buildChatPrompt(s, listings, "what's available?")
		if !strings.Contains(prompt, "$950/mo, 2BR, pets OK") {
			t.Fatalf("listing digest missing:\n%s", prompt)
		}
	})

	t.Run("other modes omit listings", func(t *testing.T) {
		s := chatSession{mode: modeSupport}
		prompt := buildChatPrompt(s, listings, "help")
		if strings.Contains(prompt, "$950/mo") {
			t.Fatalf("support prompt should not carry listings:\n%s", prompt)
		}
	})

	t.Run("history appears in order", func(t *testing.T) {
		s := chatSession{mode: modeRoommate}
		s.remember("Student", "first")
		s.remember("LeasyBot", "second")
		prompt := buildChatPrompt(s, nil, "third")
		iFirst := strings.Index(prompt, "Student: first")
		iSecond := strings.Index(prompt, "LeasyBot: second")
		iThird := strings.Index(prompt, "Student: third")
		if iFirst < 0 || iSecond < iFirst || iThird < iSecond {
			t.Fatalf("history out of order:\n%s", prompt)
		}
	})
}

func TestListingDigest(t *testing.T) {
	listings := []Listing{
		{Cost: 950, Bedrooms: 2, PetsAllowed: true, Parking: true},
		{Cost: 1200, Bedrooms: 1, Gym: true},
		{Cost: 700, Bedrooms: 1},
	}

	digest := listingDigest(listings, 2)
	if !strings.Contains(digest, "$950/mo, 2BR, pets OK, parking") {
		t.Fatalf("first listing malformed:\n%s", digest)
	}
	if !strings.Contains(digest, "...and 1 more") {
		t.Fatalf("truncation marker missing:\n%s", digest)
	}
	if strings.Contains(digest, "$700") {
		t.Fatalf("listing past the cap leaked into digest:\n%s", digest)
	}
}

func TestSystemPrompt(t *testing.T) {
	modes := []string{modeApartment, modeRoommate, modeSupport}
	seen := map[string]bool{}
	for _, m := range modes {
		p := systemPrompt(m)
		if p == "" {
			t.Fatalf("empty prompt for mode %q", m)
		}
		if seen[p] {
			t.Fatalf("modes must get distinct instructions, %q duplicated", m)
		}
		seen[p] = true
	}
}
