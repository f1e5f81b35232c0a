package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const defaultDevice = "/dev/lirc0"

// LIRC ioctl requests and feature bits, from <linux/lirc.h>.
const (
	lircGetFeatures         = 0x80046900 // _IOR('i', 0x00, __u32)
	lircSetSendCarrier      = 0x40046913 // _IOW('i', 0x13, __u32)
	lircSetSendDutyCycle    = 0x40046915 // _IOW('i', 0x15, __u32)
	lircCanSendPulse        = 0x00000002
	lircCanSetSendCarrier   = 0x00000100
	lircCanSetSendDutyCycle = 0x00000200
)

// encodePulses converts an on/off pattern into the LIRC pulse-mode write
// format: native-endian uint32 microsecond values. LIRC requires an odd count
// (the frame must end on a pulse), so a trailing gap is cut off and returned
// for the caller to wait out.
func encodePulses(pattern []int) ([]byte, time.Duration, error) {
	if len(pattern) == 0 {
		return nil, 0, errors.New("empty pattern")
	}
	vals := make([]uint32, 0, len(pattern))
	for i, us := range pattern {
		if us <= 0 || us > 1<<31-1 {
			return nil, 0, fmt.Errorf("pattern[%d]: invalid duration %d", i, us)
		}
		vals = append(vals, uint32(us))
	}

	var gap time.Duration
	if len(vals)%2 == 0 {
		gap = time.Duration(vals[len(vals)-1]) * time.Microsecond
		vals = vals[:len(vals)-1]
	}

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.NativeEndian, vals); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), gap, nil
}

func validFrequency(hz int) error {
	if hz <= 0 || hz > 1<<31-1 {
		return fmt.Errorf("invalid carrier frequency %d", hz)
	}
	return nil
}
