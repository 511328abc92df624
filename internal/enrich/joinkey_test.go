package enrich

import "testing"

func TestJoinKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Crème Brûlée!!", "creme brulee"},
		{"  Yaourt Nature  ", "yaourt nature"},
		{"Pâtes (complètes) 500g", "pates completes 500g"},
		{"CAFÉ", "cafe"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := JoinKey(c.in); got != c.want {
			t.Fatalf("JoinKey(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestJoinKey_Deterministic(t *testing.T) {
	in := "Crème Brûlée!!"
	first := JoinKey(in)
	for i := 0; i < 100; i++ {
		if got := JoinKey(in); got != first {
			t.Fatalf("JoinKey not stable: %q then %q", first, got)
		}
	}
}
