package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMatching(t *testing.T) {
	cause := errors.New("no rows")
	err := fmt.Errorf("provision: %w", New(NotFound, "load student", cause))

	if !errors.Is(err, E(NotFound)) {
		t.Fatal("expected NotFound to match through wrapping")
	}
	if errors.Is(err, E(Forbidden)) {
		t.Fatal("Forbidden must not match a NotFound error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause must stay reachable")
	}
	if !IsKind(err, NotFound) {
		t.Fatal("IsKind failed")
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{New(NotFound, "", nil), http.StatusNotFound},
		{New(InvalidState, "", nil), http.StatusUnprocessableEntity},
		{New(Unauthorized, "", nil), http.StatusUnauthorized},
		{New(Forbidden, "", nil), http.StatusForbidden},
		{New(PersistenceFailure, "", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := Status(c.err); got != c.want {
			t.Fatalf("Status(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
