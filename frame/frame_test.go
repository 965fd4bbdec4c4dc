package frame

import (
	"math/rand"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	dst := Hwaddr{1, 2, 3, 4, 5, 6}
	src := Hwaddr{0xa, 0xb, 0xc, 0xd, 0xe, 0xf}
	payload := []byte("hello network")

	buf := Encode(0x1234, dst, src, payload)

	f, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if f.Protonum() != 0x1234 {
		t.Errorf("Protonum = %#x, want %#x", f.Protonum(), 0x1234)
	}
	if *f.DestinationHW() != dst {
		t.Errorf("DestinationHW = %v, want %v", *f.DestinationHW(), dst)
	}
	if *f.SourceHW() != src {
		t.Errorf("SourceHW = %v, want %v", *f.SourceHW(), src)
	}
	if string(f.Payload()) != string(payload) {
		t.Errorf("Payload = %q, want %q", f.Payload(), payload)
	}
	if !VerifyChecksum(f) {
		t.Error("VerifyChecksum = false, want true on unmodified round-trip")
	}
}

func TestVerifyChecksumDetectsBitFlip(t *testing.T) {
	dst := Hwaddr{1, 2, 3, 4, 5, 6}
	src := Hwaddr{6, 5, 4, 3, 2, 1}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		payload := make([]byte, 1+rng.Intn(32))
		rng.Read(payload)
		buf := Encode(Protonum(rng.Uint32()), dst, src, payload)

		flipByte := rng.Intn(len(buf))
		flipBit := rng.Intn(8)
		buf[flipByte] ^= 1 << flipBit

		f, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if VerifyChecksum(f) {
			t.Fatalf("iteration %d: VerifyChecksum = true after single bit flip at byte %d bit %d", i, flipByte, flipBit)
		}
	}
}

func TestNewFrameShort(t *testing.T) {
	_, err := NewFrame(make([]byte, HeaderSize-1))
	if err != ErrShortFrame {
		t.Errorf("err = %v, want ErrShortFrame", err)
	}
}

func TestHwaddrString(t *testing.T) {
	hw := Hwaddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	if got, want := hw.String(), "ff:ff:ff:ff:ff:ff"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	hw = Hwaddr{0, 1, 2, 3, 4, 5}
	if got, want := hw.String(), "00:01:02:03:04:05"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNetAddrString(t *testing.T) {
	a := NetAddr{192, 168, 1, 1}
	if got, want := a.String(), "192.168.1.1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
