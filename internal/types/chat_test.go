package types

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestNormalizePair(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	lo1, hi1 := NormalizePair(a, b)
	lo2, hi2 := NormalizePair(b, a)
	if lo1 != lo2 || hi1 != hi2 {
		t.Fatalf("normalization depends on argument order: (%s,%s) vs (%s,%s)", lo1, hi1, lo2, hi2)
	}
	if bytes.Compare(lo1[:], hi1[:]) > 0 {
		t.Fatalf("pair not ordered: %s > %s", lo1, hi1)
	}

	lo3, hi3 := NormalizePair(a, a)
	if lo3 != a || hi3 != a {
		t.Fatalf("identical pair changed: (%s,%s)", lo3, hi3)
	}
}

func TestThreadParticipants(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	lo, hi := NormalizePair(a, b)
	thread := &ChatThread{ParticipantLowID: lo, ParticipantHighID: hi}

	if !thread.HasParticipant(a) || !thread.HasParticipant(b) {
		t.Fatal("participants not recognized")
	}
	if thread.HasParticipant(uuid.New()) {
		t.Fatal("stranger recognized as participant")
	}
	if thread.OtherParticipant(a) != b || thread.OtherParticipant(b) != a {
		t.Fatal("OtherParticipant wrong")
	}
}
