package gate

import "testing"

func TestGateMembership(t *testing.T) {
	g := New([]string{"111", "222"})

	if !g.IsAdmin("111") {
		t.Error("IsAdmin(111) = false, ожидался true")
	}
	if g.IsAdmin("333") {
		t.Error("IsAdmin(333) = true, ожидался false")
	}
	if g.IsAdmin("") {
		t.Error("IsAdmin(\"\") = true, ожидался false")
	}
}

func TestGateEmpty(t *testing.T) {
	g := New(nil)
	if g.IsAdmin("111") {
		t.Error("пустой набор админов не должен никого пропускать")
	}
}
