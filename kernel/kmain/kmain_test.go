package kmain

import "testing"

func TestItoa(t *testing.T) {
	specs := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1, "1"},
		{9, "9"},
		{10, "10"},
		{42, "42"},
		{1000, "1000"},
	}

	for _, spec := range specs {
		if got := itoa(spec.in); got != spec.want {
			t.Errorf("itoa(%d): got %q, want %q", spec.in, got, spec.want)
		}
	}
}
