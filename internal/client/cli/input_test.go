package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func withTerminal(t *testing.T, terminal bool, read func(int) ([]byte, error)) {
	t.Helper()
	oldTerm, oldRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = oldTerm, oldRead })
	isTerminal = func(int) bool { return terminal }
	if read != nil {
		readPassword = read
	}
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if !strings.Contains(out.String(), "Name?\n> ") {
		t.Fatalf("prompt not written: %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyInput(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	if _, err := GetSimpleText(in, "Name?", &out); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetPassword_Terminal(t *testing.T) {
	withTerminal(t, true, func(int) ([]byte, error) { return []byte("s3cret"), nil })

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out)
	if err != nil || string(pw) != "s3cret" {
		t.Fatalf("got %q, err=%v", pw, err)
	}
}

func TestGetPassword_TerminalError(t *testing.T) {
	withTerminal(t, true, func(int) ([]byte, error) { return nil, errors.New("boom") })

	var out bytes.Buffer
	if _, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetPassword_Piped(t *testing.T) {
	withTerminal(t, false, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"pw1\n", "pw1"},
		{"pw2\r\n", "pw2"},
		{"pw3", "pw3"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		pw, err := GetPassword(bufio.NewReader(strings.NewReader(tt.in)), &out)
		if err != nil || string(pw) != tt.want {
			t.Fatalf("%q: got %q, err=%v", tt.in, pw, err)
		}
	}
}

func TestGetPassword_PipedEmpty(t *testing.T) {
	withTerminal(t, false, nil)

	var out bytes.Buffer
	if _, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out); err == nil {
		t.Fatal("expected error")
	}
}
