package telegram

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in       string
		wantCmd  string
		wantArgs string
	}{
		{"/new", "new", ""},
		{"/new My Title", "new", "My Title"},
		{"/NEW shout", "new", "shout"},
		{"/list@somebot published", "list", "published"},
		{"/search  spaced  ", "search", "spaced"},
		{"/done\nrest", "done", "rest"},
		{"plain text", "", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			cmd, args := parseCommand(tc.in)
			if cmd != tc.wantCmd || args != tc.wantArgs {
				t.Errorf("parseCommand(%q) = %q, %q, want %q, %q", tc.in, cmd, args, tc.wantCmd, tc.wantArgs)
			}
		})
	}
}

func TestToEventMessage(t *testing.T) {
	u := tgUpdate{
		UpdateID: 10,
		Message: &tgMessage{
			MessageID: 5,
			From:      &tgUser{ID: 42},
			Chat:      tgChat{ID: 42, Type: "private"},
			Text:      "/new Hello | World",
		},
	}
	ev, ok := toEvent(u)
	if !ok {
		t.Fatal("Expected an event")
	}
	if ev.UserID != 42 || !ev.Private {
		t.Errorf("Event = %+v", ev)
	}
	if ev.Command != "new" || ev.Args != "Hello | World" {
		t.Errorf("Command parse = %q, %q", ev.Command, ev.Args)
	}
}

func TestToEventCallback(t *testing.T) {
	u := tgUpdate{
		UpdateID: 11,
		CallbackQuery: &tgCallbackQuery{
			ID:   "cb-1",
			From: tgUser{ID: 42},
			Message: &tgMessage{
				MessageID: 7,
				Chat:      tgChat{ID: 42, Type: "private"},
			},
			Data: "manage:abc123",
		},
	}
	ev, ok := toEvent(u)
	if !ok {
		t.Fatal("Expected an event")
	}
	if !ev.IsCallback() || ev.CallbackData != "manage:abc123" {
		t.Errorf("Event = %+v", ev)
	}
	if ev.Ref.MessageID != 7 || ev.Ref.ChatID != 42 {
		t.Errorf("Ref = %+v", ev.Ref)
	}
}

func TestToEventIgnoresOtherUpdates(t *testing.T) {
	if _, ok := toEvent(tgUpdate{UpdateID: 12}); ok {
		t.Error("Expected update without message or callback to be dropped")
	}
}

func TestKeyboardMarkupEmpty(t *testing.T) {
	if mk := keyboardMarkup(nil); mk != nil {
		t.Errorf("Expected nil markup for empty keyboard, got %v", mk)
	}
}
