package qr

import "testing"

func TestParseTPV(t *testing.T) {
	tpv, err := ParseTPV("00007002001393849")
	if err != nil {
		t.Fatalf("ParseTPV: %v", err)
	}
	if tpv.PaperNumber != 7 || tpv.PageNumber != 2 || tpv.Version != 1 {
		t.Errorf("got paper=%d page=%d version=%d", tpv.PaperNumber, tpv.PageNumber, tpv.Version)
	}
	if tpv.Corner != CornerSW {
		t.Errorf("corner = %d, want %d", tpv.Corner, CornerSW)
	}
	if tpv.PublicCode != "93849" {
		t.Errorf("public code = %q", tpv.PublicCode)
	}
	if got := tpv.ShortCode(); got != "00007002001" {
		t.Errorf("short code = %q", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw := "00123010002493849"
	tpv, err := ParseTPV(raw)
	if err != nil {
		t.Fatalf("ParseTPV: %v", err)
	}
	if EncodeTPV(tpv) != raw {
		t.Errorf("round trip: got %q, want %q", EncodeTPV(tpv), raw)
	}
}

func TestParseTPVRejects(t *testing.T) {
	bad := []string{
		"",
		"plomX1",
		"0000700200139384",   // too short
		"000070020013938490", // too long
		"0000700200a393849",  // non-digit
		"00007002001593849",  // corner out of range
		"00007002001093849",  // corner zero
	}
	for _, raw := range bad {
		if _, err := ParseTPV(raw); err == nil {
			t.Errorf("ParseTPV(%q) succeeded, want error", raw)
		}
	}
}

func TestMarkers(t *testing.T) {
	if !IsExtraMarker("plomX3") {
		t.Error("plomX3 should be an extra marker")
	}
	if !IsScrapMarker("plomS1") {
		t.Error("plomS1 should be a scrap marker")
	}
	if IsExtraMarker("plomX5") || IsExtraMarker("plomX") || IsExtraMarker("plomS2") {
		t.Error("invalid extra markers accepted")
	}
	corner, err := ParseMarkerCorner("plomX4")
	if err != nil || corner != CornerSE {
		t.Errorf("ParseMarkerCorner(plomX4) = %d, %v", corner, err)
	}
	if _, err := ParseMarkerCorner("junk"); err == nil {
		t.Error("ParseMarkerCorner(junk) succeeded, want error")
	}
}

func TestTypeOf(t *testing.T) {
	cases := map[string]PageType{
		"00007002001393849": PageTypeFixed,
		"plomX1":            PageTypeExtra,
		"plomS4":            PageTypeScrap,
	}
	for raw, want := range cases {
		got, ok := TypeOf(raw)
		if !ok || got != want {
			t.Errorf("TypeOf(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := TypeOf("garbage"); ok {
		t.Error("TypeOf(garbage) classified, want miss")
	}
}
