package frame

import (
	"errors"
	"strings"
	"testing"

	"github.com/five82/logdeck/internal/record"
)

const (
	frameA = `{"date":"2024-05-01T10:00:00.000Z","level":"Error","category":"LogNet","message":"a"}`
	frameB = `{"date":"2024-05-01T10:00:01.000Z","level":"Log","category":"LogTemp","message":"b","source":"server"}`
)

func TestDecoder_SingleFrame(t *testing.T) {
	var d Decoder
	recs, errs := d.Feed([]byte(frameA))
	if len(errs) != 0 {
		t.Fatalf("Feed errors = %v, want none", errs)
	}
	want := record.Record{Timestamp: "2024-05-01T10:00:00.000Z", Severity: "Error", Category: "LogNet", Message: "a"}
	if len(recs) != 1 || recs[0] != want {
		t.Fatalf("Feed records = %#v, want [%#v]", recs, want)
	}
	if d.Buffered() != 0 {
		t.Fatalf("Buffered = %d, want 0", d.Buffered())
	}
}

func TestDecoder_BackToBackFrames(t *testing.T) {
	var d Decoder
	recs, errs := d.Feed([]byte(frameA + frameB))
	if len(errs) != 0 {
		t.Fatalf("Feed errors = %v, want none", errs)
	}
	if len(recs) != 2 || recs[0].Message != "a" || recs[1].Message != "b" {
		t.Fatalf("Feed records = %#v, want a then b", recs)
	}
	if recs[1].Source != "server" {
		t.Fatalf("Source = %q, want untruncated %q", recs[1].Source, "server")
	}
}

func TestDecoder_NewlineSeparatedFrames(t *testing.T) {
	var d Decoder
	recs, _ := d.Feed([]byte(frameA + "\n" + frameB + "\n"))
	if len(recs) != 2 {
		t.Fatalf("Feed returned %d records, want 2", len(recs))
	}
}

func TestDecoder_ReassemblesAcrossEveryChunkBoundary(t *testing.T) {
	stream := frameA + frameB
	for split := 1; split < len(stream); split++ {
		var d Decoder
		first, errs1 := d.Feed([]byte(stream[:split]))
		second, errs2 := d.Feed([]byte(stream[split:]))
		if len(errs1)+len(errs2) != 0 {
			t.Fatalf("split %d: errors %v %v", split, errs1, errs2)
		}
		got := append(first, second...)
		if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
			t.Fatalf("split %d: records = %#v", split, got)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	var d Decoder
	var got []record.Record
	for _, b := range []byte(frameA + frameB) {
		recs, errs := d.Feed([]byte{b})
		if len(errs) != 0 {
			t.Fatalf("errors = %v", errs)
		}
		got = append(got, recs...)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
}

func TestDecoder_BracesInsideStrings(t *testing.T) {
	var d Decoder
	in := `{"date":"t","level":"Log","category":"c","message":"open { and close } \"quoted }\" \\"}`
	recs, errs := d.Feed([]byte(in))
	if len(errs) != 0 {
		t.Fatalf("errors = %v", errs)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if want := `open { and close } "quoted }" \`; recs[0].Message != want {
		t.Fatalf("Message = %q, want %q", recs[0].Message, want)
	}
}

func TestDecoder_DropsLeadingGarbage(t *testing.T) {
	var d Decoder
	recs, errs := d.Feed([]byte(`garbage "x" } ` + frameA))
	if len(errs) != 0 || len(recs) != 1 {
		t.Fatalf("records = %d errors = %v, want 1 record", len(recs), errs)
	}
}

func TestDecoder_UnmatchedBraceWaits(t *testing.T) {
	var d Decoder
	partial := frameA[:20]
	recs, errs := d.Feed([]byte("noise" + partial))
	if len(recs) != 0 || len(errs) != 0 {
		t.Fatalf("partial frame produced records=%v errs=%v", recs, errs)
	}
	if d.Buffered() != len(partial) {
		t.Fatalf("Buffered = %d, want %d (leading noise dropped)", d.Buffered(), len(partial))
	}
	recs, _ = d.Feed([]byte(frameA[20:]))
	if len(recs) != 1 {
		t.Fatalf("completed frame produced %d records, want 1", len(recs))
	}
}

func TestDecoder_MalformedFramesAreDroppedAndDecodingContinues(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr error
	}{
		{"invalid json", `{"date": }`, nil},
		{"missing field", `{"date":"t","level":"Log","category":"c"}`, ErrMissingField},
		{"non string field", `{"date":"t","level":3,"category":"c","message":"m"}`, ErrFieldType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decoder
			recs, errs := d.Feed([]byte(tt.frame + frameB))
			if len(errs) != 1 {
				t.Fatalf("errors = %v, want exactly 1", errs)
			}
			var decErr *DecodeError
			if !errors.As(errs[0], &decErr) {
				t.Fatalf("error %T is not *DecodeError", errs[0])
			}
			if tt.wantErr != nil && !errors.Is(errs[0], tt.wantErr) {
				t.Fatalf("error = %v, want %v", errs[0], tt.wantErr)
			}
			if len(recs) != 1 || recs[0].Message != "b" {
				t.Fatalf("records = %#v, want the following valid frame", recs)
			}
		})
	}
}

func TestDecoder_NonStringSourceIgnored(t *testing.T) {
	var d Decoder
	recs, errs := d.Feed([]byte(`{"date":"t","level":"Log","category":"c","message":"m","source":12}`))
	if len(errs) != 0 || len(recs) != 1 {
		t.Fatalf("records = %v errors = %v", recs, errs)
	}
	if recs[0].Source != "" {
		t.Fatalf("Source = %q, want empty", recs[0].Source)
	}
}

func TestDecoder_OversizedPartialFrameDiscarded(t *testing.T) {
	var d Decoder
	big := `{"message":"` + strings.Repeat("x", MaxFrameBytes)
	recs, errs := d.Feed([]byte(big))
	if len(recs) != 0 {
		t.Fatalf("records = %d, want 0", len(recs))
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrFrameTooLarge) {
		t.Fatalf("errors = %v, want ErrFrameTooLarge", errs)
	}
	if d.Buffered() != 0 {
		t.Fatalf("Buffered = %d, want 0 after discard", d.Buffered())
	}
	recs, _ = d.Feed([]byte(frameA))
	if len(recs) != 1 {
		t.Fatalf("decoder did not recover; records = %d", len(recs))
	}
}
