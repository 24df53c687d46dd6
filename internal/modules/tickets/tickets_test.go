package tickets

import "testing"

func TestLookup(t *testing.T) {
	typ, ok := Lookup("support")
	if !ok {
		t.Fatalf("expected support type")
	}
	if typ.Label != "Support" || len(typ.Questions) != 2 {
		t.Fatalf("unexpected type %+v", typ)
	}
	if typ.Questions[0].Key != "subject" || typ.Questions[1].Key != "issue" {
		t.Fatalf("support should ask for a subject then the issue, got %+v", typ.Questions)
	}

	if _, ok := Lookup("nonsense"); ok {
		t.Fatalf("expected unknown key to miss")
	}
}

func TestCatalogueQuestionsWithinModalLimit(t *testing.T) {
	// Discord modals allow at most five input rows.
	for _, typ := range Catalogue {
		if len(typ.Questions) == 0 || len(typ.Questions) > 5 {
			t.Fatalf("type %s has %d questions", typ.Key, len(typ.Questions))
		}
	}
}

func TestChannelName(t *testing.T) {
	cases := []struct {
		username, typeKey, want string
	}{
		{"Alice", "support", "ticket-alice-support"},
		{"Bob Smith", "staff_application", "ticket-bob-smith-staff-application"},
		{"émile!!", "purchase", "ticket-mile-purchase"},
		{"___", "support", "ticket-user-support"},
	}
	for _, tc := range cases {
		if got := ChannelName(tc.username, tc.typeKey); got != tc.want {
			t.Fatalf("ChannelName(%q, %q) = %q, want %q", tc.username, tc.typeKey, got, tc.want)
		}
	}
}
