package cmd

import "testing"

func TestListenURLFor(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{name: "port only", addr: ":8080", want: "http://localhost:8080"},
		{name: "host and port", addr: "127.0.0.1:9090", want: "http://127.0.0.1:9090"},
		{name: "hostname", addr: "payroll.local:80", want: "http://payroll.local:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := listenURLFor(tt.addr); got != tt.want {
				t.Fatalf("unexpected URL: expected %q, got %q", tt.want, got)
			}
		})
	}
}
