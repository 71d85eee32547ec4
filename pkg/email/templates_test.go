package email

import (
	"strings"
	"testing"
)

func TestGenerateTaskDigestHTML(t *testing.T) {
	tm, err := NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager: %v", err)
	}

	html, err := tm.GenerateTaskDigestHTML(DigestData{
		Date: "Monday, Mar 2",
		Tasks: []DigestTask{
			{Title: "Corner Mart", Subtitle: "Restock collection due", Due: "Fri, Feb 27", Status: "overdue"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateTaskDigestHTML: %v", err)
	}
	for _, want := range []string{"Monday, Mar 2", "Corner Mart", "overdue"} {
		if !strings.Contains(html, want) {
			t.Errorf("digest missing %q", want)
		}
	}
}

func TestGenerateFollowUpReminderHTML(t *testing.T) {
	tm, err := NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager: %v", err)
	}

	html, err := tm.GenerateFollowUpReminderHTML(FollowUpData{
		BusinessName: "Pizza Place",
		Due:          "Wed, Mar 4",
	})
	if err != nil {
		t.Fatalf("GenerateFollowUpReminderHTML: %v", err)
	}
	if !strings.Contains(html, "Pizza Place") || !strings.Contains(html, "Wed, Mar 4") {
		t.Errorf("reminder body incomplete:\n%s", html)
	}
}
