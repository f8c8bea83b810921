package models

import "testing"

func TestValidProductID(t *testing.T) {
	valid := []string{"a", "ab", "my-extension", "neo-vim-theme", "x-y-z"}
	for _, id := range valid {
		if !ValidProductID(id) {
			t.Errorf("expected %q to be valid", id)
		}
	}

	invalid := []string{
		"",
		"My-Extension", // uppercase
		"my_extension", // underscore
		"my extension", // space
		"-leading",
		"trailing-",
		"ext2",   // digit
		"émoji",  // non-ascii
	}
	for _, id := range invalid {
		if ValidProductID(id) {
			t.Errorf("expected %q to be invalid", id)
		}
	}
}

func TestExtensionTypeValid(t *testing.T) {
	for _, typ := range []ExtensionType{TypeTheme, TypePlugin, TypeMCPServer, TypeSlashCommand, TypeHook, TypeWebView, TypeFork, TypeTool} {
		if !typ.Valid() {
			t.Errorf("expected type %q to be valid", typ)
		}
	}

	if ExtensionType("spyware").Valid() {
		t.Error("expected unknown type to be invalid")
	}
}

func TestStatusAfterEdit_ApprovedGoesBackToPending(t *testing.T) {
	status, clearReview := StatusAfterEdit(StatusApproved, false)
	if status != StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
	if !clearReview {
		t.Error("expected review fields to be cleared")
	}
}

func TestStatusAfterEdit_PendingStaysPending(t *testing.T) {
	status, clearReview := StatusAfterEdit(StatusPending, false)
	if status != StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
	if clearReview {
		t.Error("pending edits must not clear review fields")
	}
}

func TestStatusAfterEdit_RejectedFollowsPolicy(t *testing.T) {
	// Default policy: rejected stays rejected until an admin re-reviews
	status, clearReview := StatusAfterEdit(StatusRejected, false)
	if status != StatusRejected || clearReview {
		t.Errorf("expected rejected/false, got %s/%v", status, clearReview)
	}

	// Resubmit-on-edit policy: editing re-enters the review queue
	status, clearReview = StatusAfterEdit(StatusRejected, true)
	if status != StatusPending || !clearReview {
		t.Errorf("expected pending/true, got %s/%v", status, clearReview)
	}
}
