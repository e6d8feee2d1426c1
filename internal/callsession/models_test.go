package callsession

import "testing"

func TestStatusTransitionsAreMonotonic(t *testing.T) {
	all := []Status{StatusRinging, StatusConnected, StatusRouted, StatusEnded}

	legal := map[Status]map[Status]bool{
		StatusRinging:   {StatusConnected: true, StatusRouted: true},
		StatusConnected: {StatusEnded: true},
		StatusRouted:    {},
		StatusEnded:     {},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransition(to)
			want := legal[from][to]
			if got != want {
				t.Fatalf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesCannotTransition(t *testing.T) {
	for _, s := range []Status{StatusRouted, StatusEnded} {
		if !s.Terminal() {
			t.Fatalf("expected %s terminal", s)
		}
		for _, next := range []Status{StatusRinging, StatusConnected, StatusRouted, StatusEnded} {
			if s.CanTransition(next) {
				t.Fatalf("terminal %s must not transition to %s", s, next)
			}
		}
	}
}

func TestCollapseHidesRoutingDistinction(t *testing.T) {
	cases := map[Status]Status{
		StatusRinging:   StatusRinging,
		StatusConnected: StatusConnected,
		StatusRouted:    StatusEnded,
		StatusEnded:     StatusEnded,
	}
	for in, want := range cases {
		if got := in.Collapse(); got != want {
			t.Fatalf("Collapse(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestOriginValidity(t *testing.T) {
	if !OriginGuest.Valid() || !OriginHousehold.Valid() {
		t.Fatalf("expected known origins valid")
	}
	if Origin("admin").Valid() || Origin("").Valid() {
		t.Fatalf("expected unknown origins invalid")
	}
}
