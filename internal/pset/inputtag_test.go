package pset

import "testing"

func TestParseInputTag(t *testing.T) {
	cases := []struct {
		in      string
		want    InputTag
		wantErr bool
	}{
		{in: "goodMuonMCMatch", want: InputTag{Label: "goodMuonMCMatch"}},
		{in: "TTStubsFromPixelDigis:StubAccepted", want: InputTag{Label: "TTStubsFromPixelDigis", Instance: "StubAccepted"}},
		{in: "genParticles::HLT", want: InputTag{Label: "genParticles", Process: "HLT"}},
		{in: "a:b:c", want: InputTag{Label: "a", Instance: "b", Process: "c"}},
		{in: "", want: InputTag{}},
		{in: ":b", wantErr: true},
		{in: "a:b:c:d", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseInputTag(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseInputTag(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInputTag(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseInputTag(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Errorf("String() = %q, want %q", got.String(), tc.in)
		}
	}
}

func TestFormatDouble(t *testing.T) {
	cases := map[float64]string{
		200:      "200.0",
		0:        "0.0",
		-3.1416:  "-3.1416",
		250.5:    "250.5",
		1e21:     "1e+21",
		0.000001: "1e-06",
	}
	for in, want := range cases {
		if got := formatDouble(in); got != want {
			t.Errorf("formatDouble(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestInputTagValidRoundTrips(t *testing.T) {
	tags := []InputTag{
		{},
		{Label: "genParticles"},
		{Label: "genParticles", Process: "HLT"},
		{Label: "TTStubsFromPixelDigis", Instance: "StubAccepted"},
		{Instance: "inst"},
		{Process: "HLT"},
		{Label: "a:b"},
	}
	for _, tag := range tags {
		got, err := ParseInputTag(tag.String())
		roundTrips := err == nil && got == tag
		if roundTrips != tag.Valid() {
			t.Errorf("%+v: Valid() = %v, but parsing %q gives %+v, %v", tag, tag.Valid(), tag.String(), got, err)
		}
	}
}
