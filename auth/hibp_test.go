package auth

import (
	"strings"
	"testing"
)

const rangeFixture = "0018A45C4D1DEF81644B54AB7F969B88D65:3\r\n" +
	"00D4F6E8FA6EECAD2A3AA415EEC418D38EC:17\r\n" +
	"justnoise\r\n" +
	"011053FD0102E94D6AE2F8B83D76FAF94F6:1\r\n"

func TestScanRangeMatch(t *testing.T) {
	// Suffixes are matched case-insensitively; the corpus replies upper-case.
	res, err := scanRange(strings.NewReader(rangeFixture), "00d4f6e8fa6eecad2a3aa415eec418d38ec")
	if err != nil {
		t.Fatalf("scan range: %v", err)
	}
	if !res.Found || res.Count != 17 {
		t.Fatalf("result = %+v, want found with count 17", res)
	}
}

func TestScanRangeMiss(t *testing.T) {
	res, err := scanRange(strings.NewReader(rangeFixture), "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")
	if err != nil {
		t.Fatalf("scan range: %v", err)
	}
	if res.Found || res.Count != 0 {
		t.Fatalf("result = %+v, want not found", res)
	}
}

func TestScanRangeBadCount(t *testing.T) {
	body := "00D4F6E8FA6EECAD2A3AA415EEC418D38EC:lots\r\n"
	if _, err := scanRange(strings.NewReader(body), "00D4F6E8FA6EECAD2A3AA415EEC418D38EC"); err == nil {
		t.Fatal("expected error for a non-numeric count on the matched row")
	}
}

func TestScanRangeEmptyResponse(t *testing.T) {
	res, err := scanRange(strings.NewReader(""), "00D4F6E8FA6EECAD2A3AA415EEC418D38EC")
	if err != nil {
		t.Fatalf("scan range: %v", err)
	}
	if res.Found {
		t.Fatal("empty response reported a match")
	}
}
