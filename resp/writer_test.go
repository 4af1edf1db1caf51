package resp

import "testing"

func TestEncodeCommandS1(t *testing.T) {
	// S1: encode(Array[BulkString("GET"), BulkString("k")]) -> "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"
	got := EncodeCommand(nil, "GET", []byte("k"))
	want := "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEncodeCommandNoArgs(t *testing.T) {
	got := EncodeCommand(nil, "PING")
	want := "*1\r\n$4\r\nPING\r\n"
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEncodeCommandStrings(t *testing.T) {
	got := EncodeCommandStrings(nil, "SET", "k", "v")
	want := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestEncodeCommandAppendsToDst(t *testing.T) {
	dst := []byte("prefix:")
	got := EncodeCommand(dst, "PING")
	want := "prefix:*1\r\n$4\r\nPING\r\n"
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

// TestReparseEveryKind parses one wire sample of every kind, checks it is
// consumed whole, and checks a second parse yields an equal frame. Only
// commands are ever encoded, so no encode step is involved.
func TestReparseEveryKind(t *testing.T) {
	p := NewParser(DefaultLimits())
	wires := []string{
		"+OK\r\n",
		"-ERR oops\r\n",
		"$3\r\nfoo\r\n",
		"$-1\r\n",
		"!4\r\nErr!\r\n",
		"=9\r\ntxt:hello\r\n",
		":42\r\n",
		",1.5\r\n",
		"(12345678901234567890\r\n",
		"#t\r\n",
		"_\r\n",
		"*2\r\n:1\r\n:2\r\n",
		"*-1\r\n",
		"%1\r\n$1\r\na\r\n:1\r\n",
		"~2\r\n:1\r\n:2\r\n",
		">2\r\n$7\r\nmessage\r\n$1\r\nx\r\n",
	}
	for _, w := range wires {
		v, n, err := p.Parse([]byte(w))
		if err != nil {
			t.Fatalf("%q: %v", w, err)
		}
		if n != len(w) {
			t.Fatalf("%q: consumed %d want %d", w, n, len(w))
		}
		v2, n2, err2 := p.Parse([]byte(w))
		if err2 != nil || n2 != len(w) {
			t.Fatalf("%q: reparse mismatch", w)
		}
		if !v.Equal(v2) {
			t.Fatalf("%q: not self-equal across reparse", w)
		}
	}
}
