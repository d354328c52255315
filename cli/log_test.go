package cli

import "testing"

func TestLogConfigScan(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantLevel  logLevel
		wantFormat logFormat
		wantPretty bool
		wantCaller bool
	}{
		{
			name:       "none",
			args:       []string{"gen", "a.go.lg"},
			wantPretty: true,
		},
		{
			name:       "separate_values",
			args:       []string{"--log-level", "trace", "gen", "--log-format", "text"},
			wantLevel:  "trace",
			wantFormat: "text",
			wantPretty: true,
		},
		{
			name:       "assigned_values",
			args:       []string{"--log-level=debug", "--log-pretty=false", "--log-caller"},
			wantLevel:  "debug",
			wantCaller: true,
		},
		{
			name:       "negated",
			args:       []string{"--no-log-pretty", "--no-log-caller=false"},
			wantCaller: true,
		},
		{
			name:       "value_missing",
			args:       []string{"--log-level", "--log-caller"},
			wantPretty: true,
			wantCaller: true,
		},
		{
			name:       "bad_bool_ignored",
			args:       []string{"--log-pretty=maybe"},
			wantPretty: true,
		},
		{
			name:       "stops_at_terminator",
			args:       []string{"--", "--log-level=error"},
			wantPretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.wantLevel || f.Format != tt.wantFormat ||
				f.Pretty != tt.wantPretty || f.Caller != tt.wantCaller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}
