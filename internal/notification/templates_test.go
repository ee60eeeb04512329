package notification

import (
	"encoding/json"
	"testing"
)

func TestAppURL(t *testing.T) {
	tests := []struct {
		template, project, want string
	}{
		{"", "bell-prod", "https://bell-prod.firebaseapp.com/"},
		{"https://%s.web.app/", "bell-prod", "https://bell-prod.web.app/"},
		{"https://fixed.example/", "bell-prod", "https://fixed.example/"},
	}
	for _, tt := range tests {
		if got := AppURL(tt.template, tt.project); got != tt.want {
			t.Errorf("AppURL(%q, %q) = %q, want %q", tt.template, tt.project, got, tt.want)
		}
	}
}

func TestTemplates(t *testing.T) {
	tmpl := Templates{AppURL: "https://bell.firebaseapp.com/"}

	tests := []struct {
		name string
		got  Payload
		want string
	}{
		{
			name: "online",
			got:  tmpl.Online("d1"),
			want: `{"notification":{"title":"Je deurbel ging online","body":"Het gaat om deurbell d1.","type":"ONLINE","click_action":"https://bell.firebaseapp.com/"}}`,
		},
		{
			name: "offline",
			got:  tmpl.Offline("d1"),
			want: `{"notification":{"title":"Je deurbel ging offline","body":"Het gaat om deurbell d1.","type":"OFFLINE","click_action":"https://bell.firebaseapp.com/"}}`,
		},
		{
			name: "ring",
			got:  tmpl.Ring("d1"),
			want: `{"notification":{"title":"Er belde iemand aan.","body":"Bij de deurbell d1.","type":"RING"}}`,
		},
		{
			name: "sensor",
			got:  tmpl.Sensor("beweging bij de voordeur"),
			want: `{"notification":{"title":"Een sensor detecteerde iets","body":"beweging bij de voordeur","type":"SENSOR_TRIGGERED"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.got)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("wire =\n%s\nwant\n%s", data, tt.want)
			}
		})
	}
}
