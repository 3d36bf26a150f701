package ptcorm

import "testing"

func TestParseFieldTag(t *testing.T) {
	cases := []struct {
		raw     string
		name    string
		ignored bool
		opts    map[string]string
	}{
		{"", "", false, map[string]string{}},
		{"-", "", true, map[string]string{}},
		{"user_name", "user_name", false, map[string]string{}},
		{"id,pk,auto", "id", false, map[string]string{"pk": "", "auto": ""}},
		{",length:64", "", false, map[string]string{"length": "64"}},
		{"email,key,sqltype:VARCHAR(128)", "email", false, map[string]string{"key": "", "sqltype": "VARCHAR(128)"}},
	}
	for _, c := range cases {
		got := parseFieldTag(c.raw)
		if got.name != c.name {
			t.Errorf("parseFieldTag(%q).name = %q, want %q", c.raw, got.name, c.name)
		}
		if got.ignored != c.ignored {
			t.Errorf("parseFieldTag(%q).ignored = %v, want %v", c.raw, got.ignored, c.ignored)
		}
		if len(got.opts) != len(c.opts) {
			t.Errorf("parseFieldTag(%q).opts = %v, want %v", c.raw, got.opts, c.opts)
			continue
		}
		for k, v := range c.opts {
			if got.opts[k] != v {
				t.Errorf("parseFieldTag(%q).opts[%q] = %q, want %q", c.raw, k, got.opts[k], v)
			}
		}
	}
}

func TestFieldTagAccessors(t *testing.T) {
	tag := parseFieldTag("name,pk,length:32")
	if !tag.has("pk") {
		t.Error("expected has(\"pk\") to be true")
	}
	if tag.has("auto") {
		t.Error("expected has(\"auto\") to be false")
	}
	if got := tag.intValue("length", 0); got != 32 {
		t.Errorf("intValue(length) = %d, want 32", got)
	}
	if got := tag.intValue("missing", 7); got != 7 {
		t.Errorf("intValue(missing) = %d, want default 7", got)
	}
	if got := tag.intValue("pk", 9); got != 9 {
		t.Errorf("intValue(pk) with non-numeric value should fall back to default, got %d", got)
	}
}

func TestCamelToSnake(t *testing.T) {
	cases := map[string]string{
		"User":       "user",
		"UserName":   "user_name",
		"UserID":     "user_id",
		"ID":         "id",
		"HTTPServer": "http_server",
		"A":          "a",
		"":           "",
		"orderItem":  "order_item",
	}
	for in, want := range cases {
		if got := camelToSnake(in); got != want {
			t.Errorf("camelToSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
