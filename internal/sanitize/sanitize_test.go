package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Product Page", "Product Page"},
		{"empty", "", ""},
		{"script stripped", `Promo<script>alert(1)</script>`, "Promo"},
		{"tags stripped", `<b>Black</b> Friday`, "Black Friday"},
		{"ampersand preserved", "Visa & Mastercard", "Visa & Mastercard"},
		{"whitespace collapsed", "  Summer \n  Sale  ", "Summer Sale"},
		{"encoded markup neutralised", "&lt;img src=x&gt;", "img src=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"Visa & Mastercard",
		"<i>x</i> &amp; y",
		"&lt;b&gt;bold&lt;/b&gt;",
		`"quoted" 'single'`,
	}
	for _, in := range inputs {
		once := Text(in)
		if twice := Text(once); twice != once {
			t.Errorf("Text not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
