package origin

import "testing"

func TestTypeFromName(t *testing.T) {
	cases := map[string]Type{
		"twitter":    TypeTwitter,
		"Twitter":    TypeTwitter,
		"pump.io":    TypePumpio,
		"pumpio":     TypePumpio,
		"gnusocial":  TypeGnuSocial,
		"GNU social": TypeGnuSocial,
		"mastodon":   TypeUnknown,
		"":           TypeUnknown,
	}
	for name, want := range cases {
		if got := TypeFromName(name); got != want {
			t.Errorf("TypeFromName(%q) = %v; want %v", name, got, want)
		}
	}
}

func TestBasicPath(t *testing.T) {
	if got := (Origin{Type: TypeTwitter}).BasicPath(); got != "1.1" {
		t.Errorf("twitter BasicPath = %q; want 1.1", got)
	}
	if got := (Origin{Type: TypeGnuSocial}).BasicPath(); got != "api" {
		t.Errorf("gnusocial BasicPath = %q; want api", got)
	}
}

func TestIsUsernameValid(t *testing.T) {
	gnusocial := Origin{Type: TypeGnuSocial}
	pumpio := Origin{Type: TypePumpio}

	if !gnusocial.IsUsernameValid("t131t") {
		t.Error("plain username must be valid on gnusocial")
	}
	if gnusocial.IsUsernameValid("") {
		t.Error("empty username must be invalid")
	}
	if gnusocial.IsUsernameValid("with space") {
		t.Error("username with space must be invalid")
	}
	if pumpio.IsUsernameValid("t131t") {
		t.Error("pump.io requires user@host usernames")
	}
	if !pumpio.IsUsernameValid("t131t@identi.ca") {
		t.Error("user@host must be valid on pump.io")
	}
}

func TestFixDownloadLimit(t *testing.T) {
	o := Origin{Type: TypeGnuSocial}
	if got := o.FixDownloadLimit(20); got != 20 {
		t.Errorf("FixDownloadLimit(20) = %d; want 20", got)
	}
	if got := o.FixDownloadLimit(0); got != DownloadLimitMax {
		t.Errorf("FixDownloadLimit(0) = %d; want %d", got, DownloadLimitMax)
	}
	if got := o.FixDownloadLimit(100000); got != DownloadLimitMax {
		t.Errorf("FixDownloadLimit(100000) = %d; want %d", got, DownloadLimitMax)
	}
}

func TestHost(t *testing.T) {
	cases := map[string]string{
		"https://quitter.example":        "quitter.example",
		"https://quitter.example/":       "quitter.example",
		"http://identi.ca/api/whatever":  "identi.ca",
		"quitter.example":                "quitter.example",
	}
	for url, want := range cases {
		if got := (Origin{URL: url}).Host(); got != want {
			t.Errorf("Host of %q = %q; want %q", url, got, want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry(
		Origin{ID: 1, Type: TypeGnuSocial, Name: "quitter", URL: "https://quitter.example"},
		Origin{ID: 2, Type: TypePumpio, Name: "identica", URL: "https://identi.ca"},
	)

	if o := reg.FromID(2); o.Name != "identica" {
		t.Errorf("FromID(2) = %v; want identica", o)
	}
	if o := reg.FromName("QUITTER"); o.ID != 1 {
		t.Errorf("FromName must match case-insensitively, got %v", o)
	}
	if o := reg.FromID(99); !o.IsEmpty() {
		t.Errorf("FromID(99) = %v; want empty", o)
	}
	if o := reg.FromName("nowhere"); !o.IsEmpty() {
		t.Errorf("FromName(nowhere) = %v; want empty", o)
	}
}
