package security

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "https://example.com/wallpaper.png"},
		{url: "https://203.0.113.7/a.jpg"},
		{url: "", wantErr: true},
		{url: "http://example.com/a.png", wantErr: true},
		{url: "ftp://example.com/a.png", wantErr: true},
		{url: "https:///a.png", wantErr: true},
		{url: "https://localhost/a.png", wantErr: true},
		{url: "https://127.0.0.1/a.png", wantErr: true},
		{url: "https://10.1.2.3/a.png", wantErr: true},
		{url: "https://172.20.0.1/a.png", wantErr: true},
		{url: "https://192.168.1.1/a.png", wantErr: true},
		{url: "https://169.254.169.254/latest", wantErr: true},
		{url: "https://[::1]/a.png", wantErr: true},
		{url: "https://[fd00::1]/a.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestLimitedReader(t *testing.T) {
	r := NewLimitedReader(strings.NewReader("0123456789"), 4)

	buf := make([]byte, 10)
	n, err := r.Read(buf)
	if err != nil || n != 4 {
		t.Fatalf("Read() = %d, %v; want 4, nil", n, err)
	}
	if _, err := r.Read(buf); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("Read() error = %v, want ErrLimitExceeded", err)
	}
}

func TestLimitedReaderWithinBudget(t *testing.T) {
	data, err := io.ReadAll(NewLimitedReader(strings.NewReader("palette"), 100))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "palette" {
		t.Errorf("ReadAll() = %q", data)
	}
}
