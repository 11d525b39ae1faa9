package mcparse

import (
	"reflect"
	"testing"
)

func TestParsePlayerList(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"There are 3 of a max of 20 players online: Steve, Alex, Notch", []string{"Alex", "Notch", "Steve"}},
		{"There are 3 of a max of 20 players online: Alex, Alex, Steve", []string{"Alex", "Steve"}},
		{"There are 2/20 players online:\nfoo_bar, Player123", []string{"Player123", "foo_bar"}},
		{"Alex, Alex, Steve", []string{"Alex", "Steve"}},
		// 不符合玩家名规则的片段被忽略
		{"There are 2 of a max of 20 players online: ab, ThisNameIsWayTooLongForMC, Valid_1", []string{"Valid_1"}},
	}
	for _, tc := range cases {
		got := ParsePlayerList(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParsePlayerList(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParsePlayerList_ZeroPlayers(t *testing.T) {
	for _, input := range []string{
		"There are 0 of a max of 20 players online: ",
		"There are 0 of a max of 100 players online:",
		"There are 0/20 players online:",
	} {
		got := ParsePlayerList(input)
		if got == nil || len(got) != 0 {
			t.Fatalf("ParsePlayerList(%q) = %v, want empty", input, got)
		}
	}
}

func TestIsValidPlayerName(t *testing.T) {
	valid := []string{"Steve", "abc", "Under_Score_1234"}
	invalid := []string{"ab", "", "has space", "Seventeen_chars_x", "dash-name"}
	for _, name := range valid {
		if !IsValidPlayerName(name) {
			t.Fatalf("expected %q valid", name)
		}
	}
	for _, name := range invalid {
		if IsValidPlayerName(name) {
			t.Fatalf("expected %q invalid", name)
		}
	}
}
