package hip

import "testing"

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "unreserved passes through",
			input: "House/Kitchen/DIMMER/Lamp/?LEVEL=50&COLOR=1",
			want:  "House/Kitchen/DIMMER/Lamp/?LEVEL=50&COLOR=1",
		},
		{
			name:  "space becomes %20 not plus",
			input: "Living Room",
			want:  "Living%20Room",
		},
		{
			name:  "uppercase hex",
			input: "café",
			want:  "caf%C3%A9",
		},
		{
			name:  "percent is escaped",
			input: "100%",
			want:  "100%25",
		},
		{
			name:  "comma and parens",
			input: "hsv(120,50,80)",
			want:  "hsv%28120%2C50%2C80%29",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.input); got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	inputs := []string{
		"House/Master Bedroom/AV renderer/BeoVision/",
		"q */*/*/*",
		"SET COLOR?LEVEL=hsv(120,50,80)",
		"name with ? and / and %",
		"CURRENT FIRMWARE=1.5.4.557&LATEST FIRMWARE=",
	}

	for _, in := range inputs {
		if got := Decode(Encode(in)); got != in {
			t.Errorf("Decode(Encode(%q)) = %q, want identity", in, got)
		}
	}
}

func TestDecode_Lenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercase hex accepted",
			input: "Living%20room%2fx",
			want:  "Living room/x",
		},
		{
			name:  "truncated escape passes through",
			input: "bad%2",
			want:  "bad%2",
		},
		{
			name:  "non-hex escape passes through",
			input: "bad%zz",
			want:  "bad%zz",
		},
		{
			name:  "bare percent at end",
			input: "trailing%",
			want:  "trailing%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.input); got != tt.want {
				t.Errorf("Decode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatePath(t *testing.T) {
	got := StatePath("Kitchen", TypeThermostat, "Room 1")
	want := "House/Kitchen/THERMOSTAT_1SP/Room 1/STATE_UPDATE?"
	if got != want {
		t.Errorf("StatePath() = %q, want %q", got, want)
	}

	enc := EncodedStatePath("Kitchen", TypeAVRenderer, "My TV")
	wantEnc := "House/Kitchen/AV%20renderer/My%20TV/STATE_UPDATE?"
	if enc != wantEnc {
		t.Errorf("EncodedStatePath() = %q, want %q", enc, wantEnc)
	}
}
