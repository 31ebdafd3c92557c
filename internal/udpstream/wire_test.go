package udpstream

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func makePayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i * 7)
	}
	return p
}

func TestSplitChunkAccounting(t *testing.T) {
	cases := []struct {
		size       int
		wantChunks int
		wantLast   int
	}{
		{1, 1, 1},
		{1199, 1, 1199},
		{1200, 1, 1200},
		{1201, 2, 1},
		{2400, 2, 1200},
		{5000, 5, 200},
	}
	for _, tc := range cases {
		pkts := Split(7, makePayload(tc.size))
		if len(pkts) != tc.wantChunks {
			t.Errorf("size %d: %d chunks, want %d", tc.size, len(pkts), tc.wantChunks)
			continue
		}
		last, err := parseHeader(pkts[len(pkts)-1])
		if err != nil {
			t.Fatalf("parseHeader: %v", err)
		}
		if int(last.PayloadLen) != tc.wantLast {
			t.Errorf("size %d: last payload %d, want %d", tc.size, last.PayloadLen, tc.wantLast)
		}
		if int(last.ChunkCount) != tc.wantChunks {
			t.Errorf("size %d: chunkCount %d, want %d", tc.size, last.ChunkCount, tc.wantChunks)
		}
	}
}

func TestHeaderIsLittleEndianWithMagic(t *testing.T) {
	pkts := Split(0x01020304, makePayload(10))
	pkt := pkts[0]

	if got := binary.LittleEndian.Uint32(pkt[0:]); got != 0x3255534C {
		t.Fatalf("magic = 0x%08X, want 0x3255534C", got)
	}
	// "LSU2" readable on the wire.
	if string(pkt[0:4]) != "LSU2" {
		t.Fatalf("wire magic = %q, want LSU2", pkt[0:4])
	}
	if got := binary.LittleEndian.Uint32(pkt[4:]); got != 0x01020304 {
		t.Fatalf("frameId = 0x%08X", got)
	}
}

func TestSplitAssembleRoundTrip(t *testing.T) {
	for _, size := range []int{1, 600, 1200, 1201, 2400, 3601, 50000} {
		payload := makePayload(size)
		var asm Assembler

		pkts := Split(42, payload)
		var out []byte
		var done bool
		for _, pkt := range pkts {
			out, done = asm.Feed(pkt)
		}
		if !done {
			t.Fatalf("size %d: frame not complete after all chunks", size)
		}
		if !bytes.Equal(out, payload) {
			t.Fatalf("size %d: reassembled frame differs", size)
		}
	}
}

func TestAssembleOutOfOrderAndDuplicates(t *testing.T) {
	payload := makePayload(3000)
	pkts := Split(9, payload)
	var asm Assembler

	// Deliver last-first with duplicates sprinkled in.
	order := []int{2, 0, 0, 1, 2}
	var out []byte
	var done bool
	for _, i := range order {
		out, done = asm.Feed(pkts[i])
	}
	// The trailing duplicate arrives after completion and starts a fresh
	// accumulation of the same frame; completion fired on the third unique.
	if done {
		t.Fatal("duplicate after completion should not complete again")
	}
	_ = out

	var asm2 Assembler
	for _, i := range []int{2, 0, 1} {
		out, done = asm2.Feed(pkts[i])
	}
	if !done || !bytes.Equal(out, payload) {
		t.Fatal("out-of-order delivery failed to reassemble")
	}
}

func TestAssemblerAbandonsOnNewFrame(t *testing.T) {
	old := Split(1, makePayload(2400))
	fresh := Split(2, makePayload(1800))
	var asm Assembler

	asm.Feed(old[0]) // partial frame 1

	var out []byte
	var done bool
	for _, pkt := range fresh {
		out, done = asm.Feed(pkt)
	}
	if !done {
		t.Fatal("new frame did not complete after old frame abandoned")
	}
	if !bytes.Equal(out, makePayload(1800)) {
		t.Fatal("reassembled frame corrupted by abandoned chunks")
	}

	// Straggler from frame 1 resets to (stale) frame 1; frame 3 still works.
	asm.Feed(old[1])
	final := Split(3, makePayload(100))
	out, done = asm.Feed(final[0])
	if !done || !bytes.Equal(out, makePayload(100)) {
		t.Fatal("assembler wedged by straggler chunk")
	}
}

func TestAssemblerDropsMalformedChunks(t *testing.T) {
	payload := makePayload(2000)
	pkts := Split(5, payload)
	var asm Assembler

	badMagic := append([]byte(nil), pkts[0]...)
	badMagic[0] = 0x00

	badIndex := append([]byte(nil), pkts[0]...)
	binary.LittleEndian.PutUint16(badIndex[8:], 99)

	badCount := append([]byte(nil), pkts[0]...)
	binary.LittleEndian.PutUint16(badCount[10:], 7)

	truncated := pkts[0][:HeaderSize-1]

	zeroLen := append([]byte(nil), pkts[0]...)
	binary.LittleEndian.PutUint16(zeroLen[12:], 0)

	asm.Feed(pkts[0])
	for name, bad := range map[string][]byte{
		"magic": badMagic, "index": badIndex, "count": badCount,
		"short": truncated, "zeroLen": zeroLen,
	} {
		if _, done := asm.Feed(bad); done {
			t.Fatalf("%s: malformed chunk completed a frame", name)
		}
	}

	// The in-progress accumulation must be intact.
	out, done := asm.Feed(pkts[1])
	if !done || !bytes.Equal(out, payload) {
		t.Fatal("malformed chunks disturbed the in-progress frame")
	}
}
